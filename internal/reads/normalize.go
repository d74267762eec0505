package reads

import "github.com/fxnlabs/contract-reads/internal/contracts"

// Normalize decodes raw results against the calls that produced them.
// Entries without a matching call are passed through undecoded.
func Normalize(raw []contracts.CallResult, calls []contracts.ContractCall) []contracts.Result {
	if raw == nil {
		return nil
	}
	results := make([]contracts.Result, len(raw))
	for i, r := range raw {
		if i < len(calls) {
			results[i] = contracts.ParseResult(calls[i].ABI, calls[i].FunctionName, r)
			continue
		}
		results[i] = contracts.Result{Err: r.Err, ReturnData: r.ReturnData}
	}
	return results
}
