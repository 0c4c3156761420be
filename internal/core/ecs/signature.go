package ecs

import "math/bits"

// MaxComponentTypes is the signature width.
const MaxComponentTypes = 64

// Signature records which component types an entity holds, one bit per TypeID.
type Signature uint64

func SignatureOf(ids ...TypeID) Signature {
	var s Signature
	for _, id := range ids {
		s = s.Set(id)
	}
	return s
}

func (s Signature) Set(id TypeID) Signature   { return s | 1<<id }
func (s Signature) Clear(id TypeID) Signature { return s &^ (1 << id) }
func (s Signature) Has(id TypeID) bool        { return s&(1<<id) != 0 }

// Contains reports whether s holds every bit of required.
func (s Signature) Contains(required Signature) bool { return s&required == required }

func (s Signature) Len() int { return bits.OnesCount64(uint64(s)) }
