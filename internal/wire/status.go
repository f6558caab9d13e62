package wire

import (
	"strconv"

	werrors "wirehttp/internal/errors"
)

// Family groups statuses by their leading digit
type Family int

const (
	// Successful is the 2xx family
	Successful Family = 2
	// ClientError is the 4xx family
	ClientError Family = 4
	// ServerError is the 5xx family
	ServerError Family = 5
)

// String returns a readable family name
func (f Family) String() string {
	switch f {
	case Successful:
		return "successful"
	case ClientError:
		return "client-error"
	case ServerError:
		return "server-error"
	}
	return "unknown"
}

// Status is a response status. The numeric code and the reason phrase are
// both derived from the variant; neither is stored on its own.
type Status int

const (
	StatusOK Status = iota
	StatusCreated
	StatusNotFound
	StatusInternalServerError
)

type statusInfo struct {
	family Family
	offset int
	reason string
}

var statusTable = [...]statusInfo{
	StatusOK:                  {Successful, 0, "OK"},
	StatusCreated:             {Successful, 1, "Created"},
	StatusNotFound:            {ClientError, 4, "Not Found"},
	StatusInternalServerError: {ServerError, 0, "Internal Server Error"},
}

// Statuses lists every supported status in declaration order
func Statuses() []Status {
	all := make([]Status, len(statusTable))
	for i := range statusTable {
		all[i] = Status(i)
	}
	return all
}

// info returns the table entry, or false for a value outside the table
func (s Status) info() (statusInfo, bool) {
	if s < 0 || int(s) >= len(statusTable) {
		return statusInfo{}, false
	}
	return statusTable[s], true
}

// Family returns the family the status belongs to, or 0 for an unknown status
func (s Status) Family() Family {
	info, _ := s.info()
	return info.family
}

// Code returns the numeric status code, or 0 for an unknown status
func (s Status) Code() int {
	info, ok := s.info()
	if !ok {
		return 0
	}
	return int(info.family)*100 + info.offset
}

// Reason returns the reason phrase, or "" for an unknown status
func (s Status) Reason() string {
	info, _ := s.info()
	return info.reason
}

// String renders the status as "<code> <reason>"
func (s Status) String() string {
	if _, ok := s.info(); !ok {
		return "UNKNOWN"
	}
	return strconv.Itoa(s.Code()) + " " + s.Reason()
}

// StatusFromCode looks up the status for a numeric code
func StatusFromCode(code int) (Status, error) {
	for _, s := range Statuses() {
		if s.Code() == code {
			return s, nil
		}
	}
	return 0, werrors.Newf(werrors.UnknownStatus, "unknown status code %d", code)
}
