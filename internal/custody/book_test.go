package custody

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"binFlow/internal/model"
)

var (
	alice = common.HexToAddress("0xa1")
	pool  = common.HexToAddress("0xb1")
	vault = common.HexToAddress("0xc1")
	mintA = common.HexToAddress("0xd1")
)

func TestBookApplyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	book := NewBook()
	require.NoError(t, book.OpenVault(ctx, vault, pool))
	require.NoError(t, book.Credit(alice, mintA, 100))

	err := book.Apply(ctx, []model.Transfer{
		{Source: alice, Destination: vault, Authority: alice, Asset: mintA, Amount: 60},
		{Source: alice, Destination: vault, Authority: alice, Asset: mintA, Amount: 60},
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, uint64(100), book.Balance(alice, mintA))
	require.Zero(t, book.Balance(vault, mintA))

	deposit := []model.Transfer{{Source: alice, Destination: vault, Authority: alice, Asset: mintA, Amount: 60}}
	require.NoError(t, book.Apply(ctx, deposit))
	require.Equal(t, uint64(60), book.Balance(vault, mintA))

	require.NoError(t, book.Revert(ctx, deposit))
	require.Equal(t, uint64(100), book.Balance(alice, mintA))
}

func TestBookVaultAuthority(t *testing.T) {
	ctx := context.Background()
	book := NewBook()
	require.NoError(t, book.OpenVault(ctx, vault, pool))
	require.NoError(t, book.Credit(vault, mintA, 10))

	err := book.Apply(ctx, []model.Transfer{{Source: vault, Destination: alice, Authority: alice, Asset: mintA, Amount: 5}})
	require.ErrorIs(t, err, ErrBadAuthority)

	require.NoError(t, book.Apply(ctx, []model.Transfer{{Source: vault, Destination: alice, Authority: pool, Asset: mintA, Amount: 5}}))
	require.Equal(t, uint64(5), book.Balance(alice, mintA))

	require.ErrorIs(t, book.OpenVault(ctx, vault, alice), ErrBadAuthority)
}

func TestRegistryIssueBurn(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	mint := common.HexToAddress("0xe1")

	require.NoError(t, registry.Issue(ctx, Credential{Mint: mint, Owner: alice, Name: "Bin Position", Symbol: "BINLP"}))
	require.ErrorIs(t, registry.Issue(ctx, Credential{Mint: mint, Owner: alice}), ErrCredentialExists)
	require.ErrorIs(t, registry.Burn(ctx, mint, pool), ErrNoCredential)
	require.NoError(t, registry.Burn(ctx, mint, alice))

	_, ok := registry.Lookup(mint)
	require.False(t, ok)
}
