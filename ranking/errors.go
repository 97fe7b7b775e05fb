package ranking

import "errors"

var (
	// ErrNoDataForPeriod means the store answered but nothing matches the requested period.
	ErrNoDataForPeriod = errors.New("no data for period")
	// ErrDataUnavailable means the record source failed or has no operators.
	ErrDataUnavailable = errors.New("ranking data unavailable")

	ErrInvalidPeriod    = errors.New("invalid period")
	ErrOperatorNotFound = errors.New("operator not found")
)

// NoDataMessage is returned to callers alongside an empty ranking.
const NoDataMessage = "No hay datos disponibles para el período seleccionado"

func IsNoDataForPeriod(err error) bool {
	return errors.Is(err, ErrNoDataForPeriod)
}

func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

func IsInvalidPeriod(err error) bool {
	return errors.Is(err, ErrInvalidPeriod)
}

func IsOperatorNotFound(err error) bool {
	return errors.Is(err, ErrOperatorNotFound)
}
