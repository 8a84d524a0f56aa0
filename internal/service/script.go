package service

import (
	"fmt"
	"os"

	"stablecoin-vault-sol/internal/logic/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// 操作类型
const (
	OpDeposit      = "deposit"
	OpWithdraw     = "withdraw"
	OpPauseVenue   = "pause_venue"
	OpResumeVenue  = "resume_venue"
	OpAdvanceSlots = "advance"
)

// opNamespace 用于为未指定 id 的操作生成确定性 UUID，重放同一脚本得到同一组 id
var opNamespace = uuid.MustParse("6f1c9a52-3b7e-4d0a-9c55-0a8e2f4b7d13")

type MarketSpec struct {
	Name           string `yaml:"name"`
	Decimals       uint8  `yaml:"decimals"`
	RiskLevel      uint8  `yaml:"risk_level"`
	RewardPerCall  uint64 `yaml:"reward_per_call"`
	RewardBPerCall uint64 `yaml:"reward_b_per_call"`
	RewardFunding  uint64 `yaml:"reward_funding"`
}

type UserSpec struct {
	Name    string `yaml:"name"`
	Market  string `yaml:"market"`
	Balance string `yaml:"balance"` // 十进制 UI 数量，按 market 精度换算
}

type OpSpec struct {
	ID      string `yaml:"id"`
	Kind    string `yaml:"kind"`
	Market  string `yaml:"market"`
	User    string `yaml:"user"`
	Amount  string `yaml:"amount"`
	RewardB bool   `yaml:"reward_b"` // 是否提供第二奖励代币的目标账户
	Slots   uint64 `yaml:"slots"`
}

// Script 描述一次本地模拟：市场、用户与按顺序执行的操作
type Script struct {
	Markets []MarketSpec `yaml:"markets"`
	Users   []UserSpec   `yaml:"users"`
	Ops     []OpSpec     `yaml:"ops"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	for i := range s.Ops {
		if s.Ops[i].ID == "" {
			s.Ops[i].ID = s.Ops[i].derivedID(i)
		}
	}
	return &s, nil
}

func (s *Script) market(name string) (*MarketSpec, bool) {
	for i := range s.Markets {
		if s.Markets[i].Name == name {
			return &s.Markets[i], true
		}
	}
	return nil, false
}

func (s *Script) validate() error {
	seen := make(map[string]bool, len(s.Markets))
	for _, m := range s.Markets {
		if m.Name == "" || seen[m.Name] {
			return fmt.Errorf("script: market name %q empty or duplicated", m.Name)
		}
		if m.RiskLevel > 100 {
			return fmt.Errorf("script: market %s risk_level %d > 100", m.Name, m.RiskLevel)
		}
		seen[m.Name] = true
	}

	users := make(map[string]bool, len(s.Users))
	for _, u := range s.Users {
		m, ok := s.market(u.Market)
		if !ok {
			return fmt.Errorf("script: user %s references unknown market %q", u.Name, u.Market)
		}
		if _, err := ToBaseUnits(u.Balance, m.Decimals); err != nil {
			return fmt.Errorf("script: user %s balance: %w", u.Name, err)
		}
		users[u.Market+"/"+u.Name] = true
	}

	for i, op := range s.Ops {
		switch op.Kind {
		case OpDeposit, OpWithdraw:
			m, ok := s.market(op.Market)
			if !ok {
				return fmt.Errorf("script: op %d references unknown market %q", i, op.Market)
			}
			if !users[op.Market+"/"+op.User] {
				return fmt.Errorf("script: op %d references unknown user %q in %s", i, op.User, op.Market)
			}
			// 数量为 0 的操作保留，由程序拒绝
			if _, err := ToBaseUnits(op.Amount, m.Decimals); err != nil {
				return fmt.Errorf("script: op %d amount: %w", i, err)
			}
		case OpPauseVenue, OpResumeVenue:
			if _, ok := s.market(op.Market); !ok {
				return fmt.Errorf("script: op %d references unknown market %q", i, op.Market)
			}
		case OpAdvanceSlots:
		default:
			return fmt.Errorf("script: op %d unknown kind %q", i, op.Kind)
		}
	}
	return nil
}

func (op *OpSpec) derivedID(index int) string {
	name := fmt.Sprintf("%d:%s:%s:%s:%s:%t:%d", index, op.Kind, op.Market, op.User, op.Amount, op.RewardB, op.Slots)
	return uuid.NewSHA1(opNamespace, []byte(name)).String()
}

// ToBaseUnits 将十进制 UI 数量换算为链上整数数量
func ToBaseUnits(amount string, decimals uint8) (uint64, error) {
	if amount == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", core.ErrInvalidAmount, amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", core.ErrInvalidAmount, amount)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q has more than %d decimals", core.ErrInvalidAmount, amount, decimals)
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %q overflows u64", core.ErrArithmeticOverflow, amount)
	}
	return bi.Uint64(), nil
}
