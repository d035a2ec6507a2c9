package proof

import (
	"fmt"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// Prover compiles the conservation circuit once and turns transfer
// witnesses into verified attestations. Safe for concurrent use after
// Compile; proving shares the immutable keys.
type Prover struct {
	once sync.Once
	err  error

	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// Attestation is one proof together with the public inputs it binds to.
type Attestation struct {
	Proof  groth16.Proof
	Public witness.Witness
}

// NewProver returns an uncompiled prover. Compilation and setup run on the
// first use, or explicitly via Compile.
func NewProver() *Prover {
	return &Prover{}
}

// Compile builds the constraint system and runs the one-time setup. The
// first call does the work; every later call returns the same result.
func (p *Prover) Compile() error {
	p.once.Do(func() {
		cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &ConservationCircuit{})
		if err != nil {
			p.err = fmt.Errorf("proof: compile: %w", err)
			return
		}
		pk, vk, err := groth16.Setup(cs)
		if err != nil {
			p.err = fmt.Errorf("proof: setup: %w", err)
			return
		}
		p.cs, p.pk, p.vk = cs, pk, vk
	})
	return p.err
}

// Constraints returns the compiled constraint count.
func (p *Prover) Constraints() (int, error) {
	if err := p.Compile(); err != nil {
		return 0, err
	}
	return p.cs.GetNbConstraints(), nil
}

// Prove generates a proof that the witness conserves value. A witness whose
// amounts do not balance fails here, during constraint solving.
func (p *Prover) Prove(w *TransferWitness) (*Attestation, error) {
	if err := p.Compile(); err != nil {
		return nil, err
	}
	assignment, err := w.assignment()
	if err != nil {
		return nil, err
	}
	full, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("proof: witness: %w", err)
	}
	proof, err := groth16.Prove(p.cs, p.pk, full)
	if err != nil {
		return nil, fmt.Errorf("proof: prove: %w", err)
	}
	public, err := full.Public()
	if err != nil {
		return nil, fmt.Errorf("proof: public witness: %w", err)
	}
	return &Attestation{Proof: proof, Public: public}, nil
}

// Verify checks an attestation against the verifying key.
func (p *Prover) Verify(a *Attestation) error {
	if err := p.Compile(); err != nil {
		return err
	}
	if a == nil || a.Proof == nil || a.Public == nil {
		return fmt.Errorf("proof: empty attestation")
	}
	if err := groth16.Verify(a.Proof, p.vk, a.Public); err != nil {
		return fmt.Errorf("proof: verify: %w", err)
	}
	return nil
}

// AttestResult pairs one batch entry with its outcome.
type AttestResult struct {
	Index       int
	Attestation *Attestation
	Err         error
	Elapsed     time.Duration
}

// AttestBatch proves and verifies every witness with at most maxWorkers
// goroutines. Results come back indexed in input order.
func (p *Prover) AttestBatch(witnesses []*TransferWitness, maxWorkers int) []AttestResult {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if len(witnesses) == 0 {
		return nil
	}
	if err := p.Compile(); err != nil {
		results := make([]AttestResult, len(witnesses))
		for i := range results {
			results[i] = AttestResult{Index: i, Err: err}
		}
		return results
	}

	type job struct {
		index   int
		witness *TransferWitness
	}
	jobs := make(chan job, len(witnesses))
	out := make(chan AttestResult, len(witnesses))

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				start := time.Now()
				att, err := p.Prove(j.witness)
				if err == nil {
					err = p.Verify(att)
				}
				out <- AttestResult{
					Index:       j.index,
					Attestation: att,
					Err:         err,
					Elapsed:     time.Since(start),
				}
			}
		}()
	}
	for i, w := range witnesses {
		jobs <- job{index: i, witness: w}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]AttestResult, len(witnesses))
	for r := range out {
		results[r.Index] = r
	}
	return results
}
