package contracts

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/fxnlabs/contract-reads/fixtures"
)

// builtinABIs are contract interfaces that can be referenced by name.
var builtinABIs = map[string]string{
	"erc20": fixtures.ERC20ABI,
}

// LoadABI parses a builtin interface by name or an ABI JSON file by path.
func LoadABI(ref string) (*abi.ABI, error) {
	definition, ok := builtinABIs[strings.ToLower(ref)]
	if !ok {
		abiBytes, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to read ABI file: %w", err)
		}
		definition = string(abiBytes)
	}

	parsedABI, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI %s: %w", ref, err)
	}
	return &parsedABI, nil
}

// IsBuiltinABI reports whether ref names an embedded interface.
func IsBuiltinABI(ref string) bool {
	_, ok := builtinABIs[strings.ToLower(ref)]
	return ok
}
