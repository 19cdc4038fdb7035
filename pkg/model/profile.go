package model

// Medal identifiers, in unlock order.
const (
	MedalBronze = Medal("bronze")
	MedalSilver = Medal("silver")
	MedalGold   = Medal("gold")
)

type Medal string

// Medals lists every medal in ascending threshold order. Code that picks
// "the first newly unlocked medal" iterates this slice.
var Medals = []Medal{MedalBronze, MedalSilver, MedalGold}

// UserProfile is the identity resolved from the provider after login.
// Fields the provider did not supply are empty strings, never absent.
type UserProfile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
}
