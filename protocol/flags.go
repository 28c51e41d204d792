package protocol

import (
	"fmt"
	"strings"
)

// Flags is the 16-bit flag field carried in every frame header.
//
// The space is split in two disjoint groups. Frame-scoped bits (Final,
// BeginStruct, EndStruct, Null) apply to any frame. Message-scoped bits
// (BeginFragment, EndFragment, Event, BackupAware, BackupEvent) are only
// interpreted on the first frame of a message.
type Flags uint16

// Message-scoped flags.
const (
	BeginFragment Flags = 1 << 15
	EndFragment   Flags = 1 << 14
	Event         Flags = 1 << 9
	BackupAware   Flags = 1 << 8
	BackupEvent   Flags = 1 << 7

	// Unfragmented marks a message that travels in one piece.
	Unfragmented = BeginFragment | EndFragment
)

// Frame-scoped flags.
const (
	Final       Flags = 1 << 13
	BeginStruct Flags = 1 << 12
	EndStruct   Flags = 1 << 11
	Null        Flags = 1 << 10

	// DefaultFlags is the flag set of a plain data frame.
	DefaultFlags Flags = 0
)

const (
	frameScope   = Final | BeginStruct | EndStruct | Null
	messageScope = BeginFragment | EndFragment | Event | BackupAware | BackupEvent
)

// Has reports whether every bit of mask is set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// With returns f with the bits of mask set.
func (f Flags) With(mask Flags) Flags {
	return f | mask
}

// Without returns f with the bits of mask cleared.
func (f Flags) Without(mask Flags) Flags {
	return f &^ mask
}

// FrameScope returns only the frame-scoped bits of f.
func (f Flags) FrameScope() Flags {
	return f & frameScope
}

// MessageScope returns only the message-scoped bits of f.
func (f Flags) MessageScope() Flags {
	return f & messageScope
}

var flagNames = []struct {
	flag Flags
	name string
}{
	{BeginFragment, "BeginFragment"},
	{EndFragment, "EndFragment"},
	{Final, "Final"},
	{BeginStruct, "BeginStruct"},
	{EndStruct, "EndStruct"},
	{Null, "Null"},
	{Event, "Event"},
	{BackupAware, "BackupAware"},
	{BackupEvent, "BackupEvent"},
}

func (f Flags) String() string {
	if f == DefaultFlags {
		return "Default"
	}
	var names []string
	for _, n := range flagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	if rest := f &^ (frameScope | messageScope); rest != 0 {
		names = append(names, fmt.Sprintf("0x%04X", uint16(rest)))
	}
	return strings.Join(names, "|")
}
