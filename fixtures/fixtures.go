package fixtures

import (
	_ "embed"
)

//go:embed abi/ERC20.json
var ERC20ABI string

//go:embed abi/Multicall3.json
var Multicall3ABI string

//go:embed config/config.yaml.template
var ConfigTemplate []byte
