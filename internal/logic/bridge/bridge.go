package bridge

import (
	"fmt"

	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/pda"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/logic/token"
	"stablecoin-vault-sol/internal/types"
)

// Instruction 构造调用质押场所的指令
func Instruction(accounts *VenueAccounts, opcode uint8, amount uint64) core.Instruction {
	return core.Instruction{
		ProgramID: accounts.Program,
		Accounts:  accounts.Metas(),
		Data:      StakePayload{Instruction: opcode, Amount: amount}.Encode(),
	}
}

// Stake 以 vault PDA 身份将 amount 存入质押场所
func Stake(ctx *runtime.InvokeContext, accounts *VenueAccounts, amount uint64, signer pda.Seeds) error {
	return call(ctx, accounts, consts.VenueStakeOpcode, amount, signer)
}

// Unstake 以 vault PDA 身份从质押场所取回 amount
func Unstake(ctx *runtime.InvokeContext, accounts *VenueAccounts, amount uint64, signer pda.Seeds) error {
	return call(ctx, accounts, consts.VenueUnstakeOpcode, amount, signer)
}

func call(ctx *runtime.InvokeContext, accounts *VenueAccounts, opcode uint8, amount uint64, signer pda.Seeds) error {
	ix := Instruction(accounts, opcode, amount)
	ctx.Logf("venue %s opcode=%d amount=%d", accounts.Program, opcode, amount)
	if err := ctx.InvokeSigned(ix, signer.SignerSeeds()); err != nil {
		return fmt.Errorf("%w: venue %s opcode %d: %w", core.ErrCrossContractCallFailure, accounts.Program, opcode, err)
	}
	return nil
}

// HarvestAndSweep 在质押场所调用返回之后读取奖励账户余额，并将全部余额转给 destination。
// 奖励数量只以调用后的余额为准，返回值即实际转出的数量。
func HarvestAndSweep(ctx *runtime.InvokeContext, rewardAccount, destination, authority types.Pubkey, signer pda.Seeds) (uint64, error) {
	reward, err := token.BalanceOf(ctx, rewardAccount)
	if err != nil {
		return 0, err
	}
	if reward == 0 {
		return 0, nil
	}
	if err := token.Transfer(ctx, rewardAccount, destination, authority, reward, signer.SignerSeeds()); err != nil {
		return 0, err
	}
	ctx.Logf("swept reward %d from %s to %s", reward, rewardAccount, destination)
	return reward, nil
}
