package audit

import (
	"fmt"
	"math/big"
	"runtime"

	"github.com/bits-and-blooms/bitset"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Layr-Labs/merkle-distributor-go/pkg/distribution"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-distributor-go/pkg/types"
)

// EntryResult is the outcome of checking one recipient's proof.
type EntryResult struct {
	Address string
	Index   uint64
	// Err is nil when the proof verifies.
	Err error
}

// RecordResult is the outcome of auditing one distribution.
type RecordResult struct {
	// DistributionIndex is the 1-based position of the record in its collection.
	DistributionIndex int
	Description       string
	MerkleRoot        common.Hash
	Recipients        int

	// Skipped is set for records without recipients, which commit to nothing.
	Skipped bool

	// Entries holds one result per recipient, ordered by address.
	Entries []EntryResult

	// Errors holds record level failures: root, total and index checks.
	Errors []error
}

// FailedEntries returns the entries whose proof did not verify.
func (r *RecordResult) FailedEntries() []EntryResult {
	var failed []EntryResult
	for _, e := range r.Entries {
		if e.Err != nil {
			failed = append(failed, e)
		}
	}
	return failed
}

// Failed reports whether any check on the record failed.
func (r *RecordResult) Failed() bool {
	return len(r.Errors) > 0 || len(r.FailedEntries()) > 0
}

// Report collects the results for every audited record.
type Report struct {
	Records []*RecordResult
}

// Failed reports whether any record failed.
func (r *Report) Failed() bool {
	for _, rec := range r.Records {
		if rec.Failed() {
			return true
		}
	}
	return false
}

// Auditor checks published distributions using only their public fields.
//
// Per-proof verification alone cannot notice a recipient map that was
// truncated or altered consistently with stale proofs, so every record is
// also rebuilt from scratch and compared against its published root.
type Auditor struct {
	logger  *zap.Logger
	workers int
}

// NewAuditor creates an Auditor verifying proofs with up to workers
// goroutines. A non-positive value uses GOMAXPROCS.
func NewAuditor(logger *zap.Logger, workers int) *Auditor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Auditor{logger: logger, workers: workers}
}

// Audit checks every record. Failures are collected, never returned early.
func (a *Auditor) Audit(records []*types.Distribution) *Report {
	report := &Report{Records: make([]*RecordResult, 0, len(records))}
	for i, d := range records {
		report.Records = append(report.Records, a.AuditDistribution(i+1, d))
	}
	return report
}

// AuditDistribution checks one record.
func (a *Auditor) AuditDistribution(distributionIndex int, d *types.Distribution) *RecordResult {
	result := &RecordResult{DistributionIndex: distributionIndex}
	if d == nil || len(d.Recipients) == 0 {
		result.Skipped = true
		a.logger.Sugar().Infow("Skipping distribution without recipients", "distribution_index", distributionIndex)
		return result
	}

	result.Description = d.Description
	result.MerkleRoot = d.MerkleRoot
	result.Recipients = len(d.Recipients)

	a.logger.Sugar().Infow("Checking distribution",
		"distribution_index", distributionIndex,
		"recipients", result.Recipients,
		"merkle_root", d.MerkleRoot.Hex(),
	)

	result.Entries = a.verifyProofs(d)
	for _, e := range result.Entries {
		if e.Err != nil {
			a.logger.Sugar().Warnw("Verification failed", "address", e.Address, "index", e.Index, "error", e.Err)
		} else {
			a.logger.Sugar().Debugw("Verified proof", "address", e.Address, "index", e.Index)
		}
	}

	if err := checkIndexCoverage(d); err != nil {
		result.Errors = append(result.Errors, err)
	}
	if err := checkTotal(d); err != nil {
		result.Errors = append(result.Errors, err)
	}
	if err := checkRoot(d); err != nil {
		result.Errors = append(result.Errors, err)
	}

	for _, err := range result.Errors {
		a.logger.Sugar().Warnw("Distribution check failed", "distribution_index", distributionIndex, "error", err)
	}
	a.logger.Sugar().Infow("Distribution checked",
		"distribution_index", distributionIndex,
		"failed_proofs", len(result.FailedEntries()),
		"passed", !result.Failed(),
	)
	return result
}

// verifyProofs checks every recipient independently. Each worker writes
// only its own slot of the result slice.
func (a *Auditor) verifyProofs(d *types.Distribution) []EntryResult {
	addresses := d.Addresses()
	results := make([]EntryResult, len(addresses))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, key := range addresses {
		r := d.Recipients[key]
		g.Go(func() error {
			results[i] = verifyRecipient(key, r, d.MerkleRoot)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func verifyRecipient(key string, r *types.Recipient, root common.Hash) EntryResult {
	if r == nil {
		return EntryResult{Address: key, Err: fmt.Errorf("%w: recipient %s has no data", merkle.ErrEncoding, key)}
	}
	result := EntryResult{Address: key, Index: r.Index}

	addr, err := merkle.CanonicalAddress(key)
	if err != nil {
		result.Err = err
		return result
	}
	if r.Amount == nil {
		result.Err = fmt.Errorf("%w: recipient %s has no amount", merkle.ErrEncoding, key)
		return result
	}
	if !merkle.VerifyProof(r.Index, addr, r.AmountInt(), r.Proof, root) {
		result.Err = &ProofMismatchError{Address: key, Index: r.Index}
	}
	return result
}

func checkIndexCoverage(d *types.Distribution) error {
	n := uint(len(d.Recipients))
	seen := bitset.New(n)
	for _, key := range d.Addresses() {
		r := d.Recipients[key]
		if r == nil {
			continue
		}
		if r.Index >= uint64(n) {
			return fmt.Errorf("%w: %s has index %d with %d recipients", ErrIndexCoverage, key, r.Index, n)
		}
		if seen.Test(uint(r.Index)) {
			return fmt.Errorf("%w: index %d used more than once", ErrIndexCoverage, r.Index)
		}
		seen.Set(uint(r.Index))
	}
	if seen.Count() != n {
		return fmt.Errorf("%w: %d of %d indices present", ErrIndexCoverage, seen.Count(), n)
	}
	return nil
}

func checkTotal(d *types.Distribution) error {
	sum := new(big.Int)
	for _, r := range d.Recipients {
		if r != nil && r.Amount != nil {
			sum.Add(sum, r.AmountInt())
		}
	}
	if d.TokenTotal == nil {
		return fmt.Errorf("%w: tokenTotal missing, recipients sum to %s", ErrTotalMismatch, sum)
	}
	if sum.Cmp(d.TokenTotal.ToInt()) != 0 {
		return fmt.Errorf("%w: published %s, recipients sum to %s", ErrTotalMismatch, d.TokenTotal.ToInt(), sum)
	}
	return nil
}

func checkRoot(d *types.Distribution) error {
	entries, err := distribution.IndexedEntries(d)
	if err != nil {
		return fmt.Errorf("cannot reconstruct root: %w", err)
	}
	root, err := merkle.ReconstructRoot(entries)
	if err != nil {
		return fmt.Errorf("cannot reconstruct root: %w", err)
	}
	if root != d.MerkleRoot {
		return &RootMismatchError{Published: d.MerkleRoot, Reconstructed: root}
	}
	return nil
}
