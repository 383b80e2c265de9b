package config

type CoinOptions struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}
