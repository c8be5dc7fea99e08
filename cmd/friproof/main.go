// Command friproof builds a FRI proof that a vector of field-element
// evaluations agrees with a low-degree polynomial over a given
// domain, then verifies the proof it just built.
//
// Input is three JSON lines on stdin, in order:
//
//  1. Params: {"modulus": "...", "fri_step_list": [...], "last_layer_degree_bound": N,
//     "n_queries": N, "proof_of_work_bits": N}
//  2. Domain: {"offset": "...", "generator": "...", "size": N}
//  3. Evaluations: ["...", "...", ...]  (decimal field elements, length == domain size)
//
// The proof and the verifier's verdict are written to stdout as JSON.
package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/starkcore/starkcore/internal/starkcore/domain"
	"github.com/starkcore/starkcore/internal/starkcore/field"
	"github.com/starkcore/starkcore/internal/starkcore/xhash"
	"github.com/starkcore/starkcore/pkg/starkcore"
)

type paramsInput struct {
	Modulus              string `json:"modulus"`
	FriStepList          []int  `json:"fri_step_list"`
	LastLayerDegreeBound int    `json:"last_layer_degree_bound"`
	NQueries             int    `json:"n_queries"`
	ProofOfWorkBits      uint8  `json:"proof_of_work_bits"`
}

type domainInput struct {
	Offset    string `json:"offset"`
	Generator string `json:"generator"`
	Size      int    `json:"size"`
}

type result struct {
	ProofHex string `json:"proof_hex"`
	Queries  []int  `json:"queries"`
	Verified bool   `json:"verified"`
}

func main() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<24)

	var p paramsInput
	readLine(scanner, "params", &p)
	var d domainInput
	readLine(scanner, "domain", &d)
	var evalsHex []string
	readLine(scanner, "evaluations", &evalsHex)

	modulus, ok := new(big.Int).SetString(p.Modulus, 10)
	if !ok {
		fatal("invalid modulus")
	}
	f, err := field.New(modulus)
	if err != nil {
		fatal(fmt.Sprintf("field.New: %v", err))
	}

	offset, err := parseElement(f, d.Offset)
	if err != nil {
		fatal(fmt.Sprintf("parsing offset: %v", err))
	}
	generator, err := parseElement(f, d.Generator)
	if err != nil {
		fatal(fmt.Sprintf("parsing generator: %v", err))
	}
	dom, err := domain.New(offset, generator, d.Size)
	if err != nil {
		fatal(fmt.Sprintf("domain.New: %v", err))
	}

	if len(evalsHex) != d.Size {
		fatal(fmt.Sprintf("got %d evaluations, want %d", len(evalsHex), d.Size))
	}
	evals := make([]field.Element, len(evalsHex))
	for i, s := range evalsHex {
		e, err := parseElement(f, s)
		if err != nil {
			fatal(fmt.Sprintf("parsing evaluation %d: %v", i, err))
		}
		evals[i] = e
	}

	cfg := starkcore.DefaultCommitmentConfig().WithElementSize(f.ByteLen())
	params := starkcore.FRIParams{
		FriStepList:          p.FriStepList,
		LastLayerDegreeBound: p.LastLayerDegreeBound,
		NQueries:             p.NQueries,
		ProofOfWorkBits:      p.ProofOfWorkBits,
	}
	seed := []byte("friproof")

	logStderr("running prover...")
	prover, ch, err := starkcore.NewProver(f, xhash.Keccak256{}, seed, cfg, params)
	if err != nil {
		fatal(fmt.Sprintf("NewProver: %v", err))
	}
	queries, err := prover.Prove(evals, dom)
	if err != nil {
		fatal(fmt.Sprintf("Prove: %v", err))
	}
	proof := ch.Proof()
	logStderr(fmt.Sprintf("proof generated: %d bytes, %d queries", len(proof), len(queries)))

	logStderr("running verifier...")
	verifier, err := starkcore.NewVerifier(f, xhash.Keccak256{}, seed, proof, cfg, params)
	if err != nil {
		fatal(fmt.Sprintf("NewVerifier: %v", err))
	}
	callback := func(indices []int) ([]field.Element, error) {
		out := make([]field.Element, len(indices))
		for i, idx := range indices {
			out[i] = evals[idx]
		}
		return out, nil
	}
	ok2, err := verifier.Verify(dom, callback)
	if err != nil {
		fatal(fmt.Sprintf("Verify: %v", err))
	}
	logStderr(fmt.Sprintf("verified: %v", ok2))

	out := result{ProofHex: hex.EncodeToString(proof), Queries: queries, Verified: ok2}
	outBytes, err := json.Marshal(out)
	if err != nil {
		fatal(fmt.Sprintf("failed to serialize result: %v", err))
	}
	os.Stdout.Write(outBytes)
	os.Stdout.Write([]byte("\n"))
}

func parseElement(f *field.Field, s string) (field.Element, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return field.Element{}, fmt.Errorf("not a decimal integer: %q", s)
	}
	return f.New(v), nil
}

func readLine(scanner *bufio.Scanner, name string, v interface{}) {
	if !scanner.Scan() {
		fatal(fmt.Sprintf("failed to read %s", name))
	}
	if err := json.Unmarshal(scanner.Bytes(), v); err != nil {
		fatal(fmt.Sprintf("failed to parse %s: %v", name, err))
	}
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "friproof:", msg)
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}
