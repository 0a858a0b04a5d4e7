package usecase

import "errors"

var (
	// ErrReviewClosed is returned by review operations after Close or before Open.
	ErrReviewClosed = errors.New("review closed")
	// ErrCreateDisabled means the amount is empty or the settlement is finalized.
	ErrCreateDisabled = errors.New("invoice creation disabled")
	// ErrBusy rejects a second request while one is in flight.
	ErrBusy = errors.New("request already in flight")
	// ErrNoFiles means a batch carried nothing to upload.
	ErrNoFiles = errors.New("no files to upload")
	// ErrFinalized rejects mutations of a finalized settlement.
	ErrFinalized = errors.New("settlement finalized")
)
