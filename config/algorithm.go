package config

import "github.com/mining-pool/blockminer/algorithm"

type AlgorithmOptions struct {
	Name string `json:"name"`
}

// HashFunc resolves the configured proof of work hash.
func (ao *AlgorithmOptions) HashFunc() (algorithm.HashFunc, error) {
	return algorithm.GetHashFunc(ao.Name)
}
