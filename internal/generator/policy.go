package generator

import "fmt"

// Policy selects how a generator iterates over its units when executed.
type Policy int

const (
	One Policy = iota + 1
	WhileOne
	For
	WhileFor
)

var policyNames = map[Policy]string{
	One:      "one",
	WhileOne: "while-one",
	For:      "for",
	WhileFor: "while-for",
}

func (p Policy) String() string {
	if n, ok := policyNames[p]; ok {
		return n
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy resolves a policy name.
func ParsePolicy(s string) (Policy, error) {
	for p, n := range policyNames {
		if n == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown iteration policy %q", s)
}

// Kind identifies the generator variant.
type Kind int

const (
	KindQueue Kind = iota + 1
	KindSort
	KindHeap
	KindSwitch
)

func (k Kind) String() string {
	switch k {
	case KindQueue:
		return "queue"
	case KindSort:
		return "sort"
	case KindHeap:
		return "heap"
	case KindSwitch:
		return "switch"
	}
	return "unknown"
}
