package game

import "math/rand/v2"

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength   = 4
)

// CodeGen produces 4-letter game codes, each character drawn independently
// and uniformly from A-Z. Uniqueness against live games is the engine's job:
// it retries allocation when the store reports the code as taken.
type CodeGen struct{}

func NewCodeGen() CodeGen {
	return CodeGen{}
}

func (CodeGen) Generate() string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(code)
}
