package translate

import "errors"

var (
	ErrRecordRequired          = errors.New("translate: record required")
	ErrBlobRepositoryRequired  = errors.New("translate: blob repository required")
	ErrIndexRepositoryRequired = errors.New("translate: index repository required")
	ErrLocaleServiceRequired   = errors.New("translate: locale service required")
	ErrModelNotRegistered      = errors.New("translate: model type not registered")
	ErrAttributeRequired       = errors.New("translate: attribute name required")
	ErrInvalidDirection        = errors.New("translate: order direction must be asc or desc")

	// ErrUnsupportedIndexValue is returned when an indexed attribute holds a
	// structured value that has no text form.
	ErrUnsupportedIndexValue = errors.New("translate: indexed attribute value is not scalar")
)
