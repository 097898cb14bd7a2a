package report

import (
	"fmt"
	"strconv"
	"strings"

	"fieldreport/internal/model"
)

// DamageCounts maps products to reported damage counts. Absent entries read
// as zero. Updates return a new value and never modify the receiver.
type DamageCounts struct {
	counts map[model.ProductID]int
}

// Get returns the count for id and whether one was ever reported.
func (d DamageCounts) Get(id model.ProductID) (int, bool) {
	n, ok := d.counts[id]
	return n, ok
}

// Count returns the count for id, zero when absent.
func (d DamageCounts) Count(id model.ProductID) int {
	return d.counts[id]
}

// Encoded returns the wire form of the count for id ("0" when absent).
func (d DamageCounts) Encoded(id model.ProductID) string {
	return strconv.Itoa(d.counts[id])
}

// With returns a copy with the count for id replaced.
func (d DamageCounts) With(id model.ProductID, n int) DamageCounts {
	next := make(map[model.ProductID]int, len(d.counts)+1)
	for k, v := range d.counts {
		next[k] = v
	}
	next[id] = n
	return DamageCounts{counts: next}
}

// Len is the number of products with a reported count.
func (d DamageCounts) Len() int {
	return len(d.counts)
}

// Total sums all reported counts.
func (d DamageCounts) Total() int {
	total := 0
	for _, n := range d.counts {
		total += n
	}
	return total
}

// DamageEdit is the result of applying one damage input.
type DamageEdit struct {
	Value   int
	Clamped bool
	Limit   int
}

// Message is the user-facing explanation for a clamped edit.
func (e DamageEdit) Message() string {
	if !e.Clamped {
		return ""
	}
	return fmt.Sprintf("You cannot report more damages than the delivered quantity (%d).", e.Limit)
}

// ParseDamageInput normalizes a typed damage count. One leading "+" and any
// leading zeros are skipped and the leading run of digits is parsed; anything
// else, including an empty string or a minus sign, yields 0. Values too large
// for an int saturate.
func ParseDamageInput(input string) int {
	s := strings.TrimSpace(input)
	s = strings.TrimLeft(strings.TrimPrefix(s, "+"), "0")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

// ClampDamage bounds n to [0, quantity].
func ClampDamage(n, quantity int) DamageEdit {
	limit := max(quantity, 0)
	switch {
	case n > limit:
		return DamageEdit{Value: limit, Clamped: true, Limit: limit}
	case n < 0:
		return DamageEdit{Value: 0, Limit: limit}
	default:
		return DamageEdit{Value: n, Limit: limit}
	}
}
