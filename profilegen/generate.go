package profilegen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/poiesic/maniplib/preflib"
)

// Culture names accepted by Generate.
const (
	CultureIC      = "ic"
	CultureIAC     = "iac"
	CultureUrn     = "urn"
	CultureSPIC    = "spic"
	CultureMallows = "mallows"
)

// Cultures lists the culture names in the order they are documented.
var Cultures = []string{CultureIC, CultureIAC, CultureUrn, CultureSPIC, CultureMallows}

// ErrUnknownCulture is returned by Generate for an unregistered culture name.
var ErrUnknownCulture = errors.New("unknown culture")

// Params selects a culture and its parameters.
type Params struct {
	Culture    string   `yaml:"culture"`
	Candidates int      `yaml:"candidates"`
	Voters     int      `yaml:"voters"`
	Replace    int      `yaml:"replace"`
	Refs       int      `yaml:"refs"`
	Phi        *float64 `yaml:"phi"`
}

// Generate draws an election from the named culture over CandidateMap(Candidates).
// Mallows uses Refs reference orders (at least one) and the fixed dispersion
// Phi, or random dispersions when Phi is nil.
func Generate(rng *rand.Rand, p Params) (*preflib.Election, error) {
	cands := CandidateMap(p.Candidates)
	switch strings.ToLower(p.Culture) {
	case CultureIC:
		return ImpartialCulture(rng, p.Voters, cands)
	case CultureIAC:
		return ImpartialAnonymousCulture(rng, p.Voters, cands)
	case CultureUrn:
		return Urn(rng, p.Voters, p.Replace, cands)
	case CultureSPIC:
		return SinglePeakedImpartialCulture(rng, p.Voters, cands)
	case CultureMallows:
		refs := max(p.Refs, 1)
		if p.Phi == nil {
			return MallowsMix(rng, p.Voters, cands, refs)
		}
		return MallowsMixPhi(rng, p.Voters, cands, refs, *p.Phi)
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownCulture, p.Culture, strings.Join(Cultures, ", "))
	}
}

// String names the parameters compactly, for use as a dataset label.
func (p Params) String() string {
	s := fmt.Sprintf("%s-m%d-n%d", strings.ToLower(p.Culture), p.Candidates, p.Voters)
	switch strings.ToLower(p.Culture) {
	case CultureUrn:
		s += fmt.Sprintf("-r%d", p.Replace)
	case CultureMallows:
		s += fmt.Sprintf("-refs%d", max(p.Refs, 1))
		if p.Phi != nil {
			s += fmt.Sprintf("-phi%g", *p.Phi)
		}
	}
	return s
}
