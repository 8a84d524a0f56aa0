package core

import "errors"

var (
	ErrAuthorizationMismatch    = errors.New("authorization mismatch")
	ErrInvalidDerivedAddress    = errors.New("invalid derived address")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrArithmeticOverflow       = errors.New("arithmetic overflow")
	ErrArithmeticUnderflow      = errors.New("arithmetic underflow")
	ErrCrossContractCallFailure = errors.New("cross-contract call failure")

	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidInstructionData = errors.New("invalid instruction data")
	ErrInvalidAccountData     = errors.New("invalid account data")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountAlreadyInUse    = errors.New("account already in use")
	ErrUnknownInstruction     = errors.New("unknown instruction")
)

// ErrorKind 是对调用方暴露的错误分类（不透明，只用于判断是否需要修正参数后重新提交）
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindAuthorizationMismatch
	KindInvalidDerivedAddress
	KindInsufficientFunds
	KindArithmeticOverflow
	KindArithmeticUnderflow
	KindCrossContractCallFailure
	KindInvalidArgument
	KindInvalidAccount
)

var kindNames = []string{
	"Unknown",
	"AuthorizationMismatch",
	"InvalidDerivedAddress",
	"InsufficientFunds",
	"ArithmeticOverflow",
	"ArithmeticUnderflow",
	"CrossContractCallFailure",
	"InvalidArgument",
	"InvalidAccount",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[0]
}

// classifyOrder 决定多重包装时的优先级：外部调用失败优先于其内部原因
var classifyOrder = []struct {
	err  error
	kind ErrorKind
}{
	{ErrCrossContractCallFailure, KindCrossContractCallFailure},
	{ErrAuthorizationMismatch, KindAuthorizationMismatch},
	{ErrInvalidDerivedAddress, KindInvalidDerivedAddress},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrArithmeticOverflow, KindArithmeticOverflow},
	{ErrArithmeticUnderflow, KindArithmeticUnderflow},
	{ErrInvalidAmount, KindInvalidArgument},
	{ErrInvalidInstructionData, KindInvalidArgument},
	{ErrUnknownInstruction, KindInvalidArgument},
	{ErrInvalidAccountData, KindInvalidAccount},
	{ErrAccountNotFound, KindInvalidAccount},
	{ErrAccountAlreadyInUse, KindInvalidAccount},
}

// Classify 将任意错误归类为 ErrorKind，nil 返回 KindUnknown
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, c := range classifyOrder {
		if errors.Is(err, c.err) {
			return c.kind
		}
	}
	return KindUnknown
}
