package core

// ids.go - string parsing for the identifier formats types.go's String()
// methods produce. Clients (the CLI in particular) need to go the other way:
// turn a user-typed "alice@wonderland" back into an AccountId.

import (
	"fmt"
	"strings"
)

// ParseAccountId parses "signatory@domain".
func ParseAccountId(s string) (AccountId, error) {
	sig, dom, ok := strings.Cut(s, "@")
	if !ok || sig == "" || dom == "" {
		return AccountId{}, fmt.Errorf("invalid account id %q, want signatory@domain", s)
	}
	return AccountId{Signatory: sig, Domain: dom}, nil
}

// ParseAssetDefinitionId parses "name#domain".
func ParseAssetDefinitionId(s string) (AssetDefinitionId, error) {
	name, dom, ok := strings.Cut(s, "#")
	if !ok || name == "" || dom == "" {
		return AssetDefinitionId{}, fmt.Errorf("invalid asset definition id %q, want name#domain", s)
	}
	return AssetDefinitionId{Name: name, Domain: dom}, nil
}

// ParseAssetId parses "name#domain#signatory@domain", the concatenation of
// an AssetDefinitionId and an AccountId as AssetId.String() produces.
func ParseAssetId(s string) (AssetId, error) {
	defPart, accPart, ok := strings.Cut(s, "#")
	if !ok {
		return AssetId{}, fmt.Errorf("invalid asset id %q, want name#domain#signatory@domain", s)
	}
	domPart, accStr, ok := strings.Cut(accPart, "#")
	if !ok {
		return AssetId{}, fmt.Errorf("invalid asset id %q, want name#domain#signatory@domain", s)
	}
	acc, err := ParseAccountId(accStr)
	if err != nil {
		return AssetId{}, fmt.Errorf("invalid asset id %q: %w", s, err)
	}
	return AssetId{Definition: AssetDefinitionId{Name: defPart, Domain: domPart}, Account: acc}, nil
}
