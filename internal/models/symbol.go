package models

import "fmt"

// Symbol is a single card face. The deck is built from a fixed 4-letter
// alphabet and every card in play is one of these values.
type Symbol string

const (
	SymbolC Symbol = "C"
	SymbolO Symbol = "O"
	SymbolD Symbol = "D"
	SymbolE Symbol = "E"
)

// Alphabet lists the valid symbols in a stable order.
var Alphabet = []Symbol{SymbolC, SymbolO, SymbolD, SymbolE}

// ParseSymbol validates a raw string coming from a client or the database.
func ParseSymbol(s string) (Symbol, error) {
	for _, sym := range Alphabet {
		if Symbol(s) == sym {
			return sym, nil
		}
	}
	return "", fmt.Errorf("invalid card symbol %q", s)
}

// SymbolsFromStrings converts a raw string slice into symbols, rejecting any
// value outside the alphabet. Used at the persistence boundary so card
// sequences are always strongly typed in memory.
func SymbolsFromStrings(raw []string) ([]Symbol, error) {
	out := make([]Symbol, 0, len(raw))
	for _, s := range raw {
		sym, err := ParseSymbol(s)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, nil
}

// StringsFromSymbols converts symbols back to plain strings for storage.
func StringsFromSymbols(syms []Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = string(s)
	}
	return out
}
