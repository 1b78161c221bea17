// Package qlearn implements the tabular Q-learning engine: state
// abstraction, the action-value table, the exploration policy, the
// temporal-difference update and table persistence.
package qlearn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/snakelabs/forager/game"
	"github.com/snakelabs/forager/rules"
)

// distBucketSize groups Manhattan distances into buckets of this width.
const distBucketSize = 5

// maxDistBucket caps the bucket index so far-away targets collapse into one
// "far" class.
const maxDistBucket = 3

// Signature is the finite-cardinality abstraction of a GridState. Two
// snapshots with equal signatures are decision-equivalent for the learner;
// collapsing physically different states is what keeps the table bounded.
//
// Cardinality: 3 * 3 * 4 * 4 * 16 = 2304 signatures.
type Signature struct {
	// BearingX/BearingY are the signs (-1, 0, +1) of the target offset from
	// the head.
	BearingX int8
	BearingY int8
	// DistBucket discretizes the Manhattan distance to the target.
	DistBucket int8
	// Heading is the current travel direction.
	Heading game.Direction
	// Danger has one bit per direction (bit index = direction value) set when
	// moving that way would be lethal.
	Danger uint8
}

// Encode derives the signature for a snapshot. Deterministic and total: any
// snapshot with a head cell encodes, including terminal ones.
func Encode(state *game.GridState) Signature {
	head := state.Head()

	sig := Signature{
		BearingX:   sign(state.Target.X - head.X),
		BearingY:   sign(state.Target.Y - head.Y),
		DistBucket: distBucket(game.Manhattan(head, state.Target)),
		Heading:    state.Heading,
	}

	for d := game.Up; d <= game.Right; d++ {
		if rules.IsLethal(state, head.Neighbor(d)) {
			sig.Danger |= 1 << uint(d)
		}
	}

	return sig
}

func sign(v int32) int8 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

func distBucket(d int32) int8 {
	b := d / distBucketSize
	if b > maxDistBucket {
		b = maxDistBucket
	}
	return int8(b)
}

// Key renders the signature as the string used in the persisted table.
// Format: "<bx>,<by>,<bucket>,<heading>,<danger>".
func (s Signature) Key() string {
	return fmt.Sprintf("%d,%d,%d,%s,%d", s.BearingX, s.BearingY, s.DistBucket, s.Heading, s.Danger)
}

// ParseKey is the inverse of Key. Restore uses it to validate rows: a key
// that does not parse, or whose fields fall outside their domains, is
// rejected and the row dropped.
func ParseKey(key string) (Signature, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 5 {
		return Signature{}, fmt.Errorf("signature key %q: want 5 fields, got %d", key, len(parts))
	}

	bx, err := strconv.ParseInt(parts[0], 10, 8)
	if err != nil || bx < -1 || bx > 1 {
		return Signature{}, fmt.Errorf("signature key %q: bad bearing x %q", key, parts[0])
	}
	by, err := strconv.ParseInt(parts[1], 10, 8)
	if err != nil || by < -1 || by > 1 {
		return Signature{}, fmt.Errorf("signature key %q: bad bearing y %q", key, parts[1])
	}
	bucket, err := strconv.ParseInt(parts[2], 10, 8)
	if err != nil || bucket < 0 || bucket > maxDistBucket {
		return Signature{}, fmt.Errorf("signature key %q: bad distance bucket %q", key, parts[2])
	}
	heading, ok := game.ParseDirection(parts[3])
	if !ok {
		return Signature{}, fmt.Errorf("signature key %q: bad heading %q", key, parts[3])
	}
	danger, err := strconv.ParseUint(parts[4], 10, 8)
	if err != nil || danger > 15 {
		return Signature{}, fmt.Errorf("signature key %q: bad danger mask %q", key, parts[4])
	}

	return Signature{
		BearingX:   int8(bx),
		BearingY:   int8(by),
		DistBucket: int8(bucket),
		Heading:    heading,
		Danger:     uint8(danger),
	}, nil
}
