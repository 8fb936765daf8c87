package domain

// Admission is the tri-state outcome of the idempotent request-admission
// check. Degraded admission means the claim store was unreachable and the
// request was let through unverified (availability over exactness).
type Admission int

const (
	AdmissionAdmitted Admission = iota
	AdmissionDuplicate
	AdmissionDegraded
)

func (a Admission) String() string {
	switch a {
	case AdmissionAdmitted:
		return "admitted"
	case AdmissionDuplicate:
		return "duplicate"
	case AdmissionDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
