package chain

import (
	"math/big"
	"strings"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	wrapErrors "github.com/linlinbupt123-crypto/sweep_service/errors"
)

// The two entry points the service touches on the token contract.
const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

var (
	erc20Once sync.Once
	erc20ABI  abi.ABI
	erc20Err  error
)

// tokenABI parses the embedded ABI lazily, exactly once per process.
func tokenABI() (abi.ABI, error) {
	erc20Once.Do(func() {
		erc20ABI, erc20Err = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	if erc20Err != nil {
		return abi.ABI{}, wrapErrors.WrapWithCode(wrapErrors.CodeChainRPC, "parse token abi", erc20Err)
	}
	return erc20ABI, nil
}

func packBalanceOf(owner common.Address) ([]byte, error) {
	parsed, err := tokenABI()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("balanceOf", owner)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeChainRPC, "pack balanceOf", err)
	}
	return data, nil
}

func packTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	parsed, err := tokenABI()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("transfer", to, amount)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeChainRPC, "pack transfer", err)
	}
	return data, nil
}

func unpackBalance(raw []byte) (*big.Int, error) {
	parsed, err := tokenABI()
	if err != nil {
		return nil, err
	}
	out, err := parsed.Unpack("balanceOf", raw)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeChainRPC, "unpack balanceOf", err)
	}
	if len(out) == 0 {
		return nil, wrapErrors.New(wrapErrors.CodeChainRPC, "unpack balanceOf", "empty contract response")
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, wrapErrors.New(wrapErrors.CodeChainRPC, "unpack balanceOf", "unexpected return type")
	}
	return bal, nil
}

func callMsg(to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{To: &to, Data: data}
}
