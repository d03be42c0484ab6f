package pagecache

import "fmt"

type constError string

func (errStr constError) Error() string { return string(errStr) }

const (
	// ErrInvalidArgument is returned for caller-supplied arguments that are
	// rejected at the entry point without mutating any state: an out of
	// range pinned-page percentage or a pageCount < 1. File ids are not
	// validated by this package; they are passed to the write cache as-is.
	ErrInvalidArgument = constError("pagecache: invalid argument")
	// ErrStorageConsistency signals a programmer contract violation by the
	// caller (a page still in use where none was expected, a page missing
	// from an index that should contain it). Fatal for the in-flight
	// operation; the cache does not attempt to roll back state already
	// mutated before the point of detection.
	ErrStorageConsistency = constError("pagecache: storage consistency violation")
	// ErrAllEntriesInUse is raised by eviction when every entry in a1in or
	// am has usagesCount > 0, i.e. backpressure: too many outstanding
	// usages for the configured budget.
	ErrAllEntriesInUse = constError("pagecache: all cache entries used")
	// ErrIllegalBudgetChange is raised by ChangeMaximumAmountOfMemory when
	// the requested budget would push the pinned-page set over its
	// configured percentage.
	ErrIllegalBudgetChange = constError("pagecache: pinned pages would exceed limit")
	// ErrInterrupted wraps cancellation observed while cooperatively
	// waiting inside WriteCache.CheckCacheOverflow.
	ErrInterrupted = constError("pagecache: interrupted waiting for cache overflow check")
)

func invalidPercentError(percent int32) error {
	return fmt.Errorf("%w: percentOfPinnedPages must be <=50, got %d", ErrInvalidArgument, percent)
}

func invalidPageCountError(pageCount int) error {
	return fmt.Errorf("%w: pageCount must be >=1, got %d", ErrInvalidArgument, pageCount)
}

func pageInUseError(fileID, pageIndex uint64) error {
	return fmt.Errorf("%w: page %d:%d is used and cannot be removed", ErrStorageConsistency, fileID, pageIndex)
}

func pageNotFoundError(fileID, pageIndex uint64) error {
	return fmt.Errorf("%w: page %d:%d not found in cache for file", ErrStorageConsistency, fileID, pageIndex)
}

func fileContentsNotEmptyError(fileID uint64) error {
	return fmt.Errorf("%w: file %d already tracked with non-empty contents", ErrStorageConsistency, fileID)
}

func budgetExceedsPinnedRatioError(newSize int64, pinnedPages int64, percent int32) error {
	return fmt.Errorf(
		"%w: %d pinned pages of %d would exceed %d%%",
		ErrIllegalBudgetChange, pinnedPages, newSize, percent)
}

func interruptedError(err error) error {
	return fmt.Errorf("%w: %v", ErrInterrupted, err)
}
