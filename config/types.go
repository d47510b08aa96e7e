package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from "50ms"-style strings or from
// a plain number of seconds, and encodes as a string.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// ParseDuration accepts a Go duration string or a number of seconds.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return seconds(f), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return Duration(d), nil
}

func seconds(f float64) Duration { return Duration(math.Round(f * float64(time.Second))) }

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*d = seconds(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseDuration(n.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Triple is an H,S,V bound. It decodes from a three-element list or from a
// "h,s,v" string.
type Triple [3]uint8

// ParseTriple parses "h,s,v" with each component in 0..255.
func ParseTriple(s string) (Triple, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Triple{}, fmt.Errorf("triple %q: want three comma separated values", s)
	}
	var t Triple
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Triple{}, fmt.Errorf("triple %q: %w", s, err)
		}
		t[i] = uint8(n)
	}
	return t, nil
}

func (t Triple) String() string { return fmt.Sprintf("%d,%d,%d", t[0], t[1], t[2]) }

func (t Triple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]int{int(t[0]), int(t[1]), int(t[2])})
}

func (t *Triple) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := ParseTriple(s)
		if err != nil {
			return err
		}
		*t = v
		return nil
	}
	var list []int
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("triple: %w", err)
	}
	return t.fromInts(list)
}

func (t Triple) MarshalYAML() (any, error) { return []int{int(t[0]), int(t[1]), int(t[2])}, nil }

func (t *Triple) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		v, err := ParseTriple(n.Value)
		if err != nil {
			return err
		}
		*t = v
		return nil
	}
	var list []int
	if err := n.Decode(&list); err != nil {
		return fmt.Errorf("triple: %w", err)
	}
	return t.fromInts(list)
}

func (t *Triple) fromInts(list []int) error {
	if len(list) != 3 {
		return fmt.Errorf("triple: want 3 values, got %d", len(list))
	}
	for i, v := range list {
		if v < 0 || v > 255 {
			return fmt.Errorf("triple: value %d out of range", v)
		}
		t[i] = uint8(v)
	}
	return nil
}
