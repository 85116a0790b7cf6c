package library

import "errors"

// ErrAssetNotFound indicates the asset record or its audio file is gone.
var ErrAssetNotFound = errors.New("asset not found")

// ErrProfileNotFound indicates no voice profile exists with the given id.
var ErrProfileNotFound = errors.New("voice profile not found")
