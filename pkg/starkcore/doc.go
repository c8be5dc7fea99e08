// Package starkcore provides the cryptographic core shared by STARK
// provers and verifiers: a Fiat-Shamir transcript, a Merkle-backed
// commitment-scheme stack, a row/column table view over that stack,
// and the FRI low-degree test.
//
// # Scope
//
// This package implements the protocol machinery a STARK needs to
// commit to polynomial evaluations and prove they agree with a
// low-degree polynomial. It does not implement a constraint system,
// an AIR, or a virtual machine: callers supply the evaluations to
// commit to and the domain they live on, and get back a proof and a
// set of query indices.
//
// # Quick Start
//
// Proving a vector of evaluations is low-degree:
//
//	cfg := starkcore.DefaultCommitmentConfig()
//	params := starkcore.FRIParams{
//		FriStepList:          []int{3, 3, 2},
//		LastLayerDegreeBound: 8,
//		NQueries:             20,
//		ProofOfWorkBits:      20,
//	}
//	prover, ch, err := starkcore.NewProver(f, xhash.Keccak256{}, seed, cfg, params)
//	if err != nil {
//		log.Fatal(err)
//	}
//	queries, err := prover.Prove(evals, dom)
//	if err != nil {
//		log.Fatal(err)
//	}
//	proof := ch.Proof()
//
// Verifying it back:
//
//	verifier, err := starkcore.NewVerifier(f, xhash.Keccak256{}, seed, proof, cfg, params)
//	if err != nil {
//		log.Fatal(err)
//	}
//	ok, err := verifier.Verify(dom, func(idx []int) ([]starkcore.FieldElement, error) {
//		return readEvaluationsAt(idx), nil
//	})
//
// # Architecture
//
// starkcore splits into a public and private half:
//
//   - pkg/starkcore/: public API (this package) — field/digest aliases,
//     configuration, and the Prover/Verifier entry points.
//   - internal/starkcore/: the subsystems themselves (channel, merkle,
//     packaging, commitment, table, fri), composable independently by
//     code within this module but not importable from outside it.
//
// # References
//
//   - FRI paper: https://eccc.weizmann.ac.il/report/2017/134/
package starkcore
