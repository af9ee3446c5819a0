package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/census/internal/census/controller"
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/census/reconcile"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

// parseDate reads a YYYY-MM-DD value; field names the input in errors.
func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", e.ErrInvalidInput, field)
	}
	return t, nil
}

// parseOptionalDate returns nil for an empty value.
func parseOptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", e.ErrInvalidInput, field)
	}
	return id, nil
}

// wireToModel converts a wire CensusEmployee into a new domain record.
func wireToModel(in *CensusEmployee) (*models.CensusEmployee, error) {
	if in == nil {
		return nil, errors.New("nil census employee data")
	}
	employer, err := parseID("employer_profile_id", in.EmployerProfileID)
	if err != nil {
		return nil, err
	}
	dob, err := parseDate("dob", in.DOB)
	if err != nil {
		return nil, err
	}
	hiredOn, err := parseOptionalDate("hired_on", in.HiredOn)
	if err != nil {
		return nil, err
	}
	cobraBegin, err := parseOptionalDate("cobra_begin_date", in.CobraBeginDate)
	if err != nil {
		return nil, err
	}
	deps, err := wireToDependents(in.Dependents)
	if err != nil {
		return nil, err
	}

	return &models.CensusEmployee{
		EmployerProfileID: employer,
		FirstName:         in.FirstName,
		MiddleName:        in.MiddleName,
		LastName:          in.LastName,
		NameSfx:           in.NameSfx,
		SSN:               in.SSN,
		DOB:               dob,
		Gender:            in.Gender,
		HiredOn:           hiredOn,
		IsBusinessOwner:   in.IsBusinessOwner,
		ExistingCobra:     in.ExistingCobra,
		CobraBeginDate:    cobraBegin,
		Dependents:        deps,
	}, nil
}

func wireToDependents(in []*Dependent) ([]*models.CensusDependent, error) {
	out := make([]*models.CensusDependent, 0, len(in))
	for i, d := range in {
		dob, err := parseDate(fmt.Sprintf("census_dependents[%d].dob", i), d.DOB)
		if err != nil {
			return nil, err
		}
		dep := &models.CensusDependent{
			FirstName:            d.FirstName,
			MiddleName:           d.MiddleName,
			LastName:             d.LastName,
			DOB:                  dob,
			Gender:               d.Gender,
			SSN:                  d.SSN,
			EmployeeRelationship: models.Relationship(d.EmployeeRelationship),
		}
		if d.ID != "" {
			if dep.ID, err = parseID("census dependent id", d.ID); err != nil {
				return nil, err
			}
		}
		out = append(out, dep)
	}
	return out, nil
}

// wireToUpdate converts an update request into a domain update.
func wireToUpdate(req *UpdateCensusEmployeeRequest) (*models.CensusEmployeeUpdate, error) {
	id, err := parseID("census employee id", req.ID)
	if err != nil {
		return nil, err
	}
	update := &models.CensusEmployeeUpdate{
		ID:              id,
		Version:         req.Version,
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		NameSfx:         req.NameSfx,
		SSN:             req.SSN,
		Gender:          req.Gender,
		IsBusinessOwner: req.IsBusinessOwner,
		ExistingCobra:   req.ExistingCobra,
	}
	dates := []struct {
		field string
		in    *string
		out   **time.Time
	}{
		{"dob", req.DOB, &update.DOB},
		{"hired_on", req.HiredOn, &update.HiredOn},
		{"cobra_begin_date", req.CobraBeginDate, &update.CobraBeginDate},
	}
	for _, d := range dates {
		if d.in == nil {
			continue
		}
		t, err := parseDate(d.field, *d.in)
		if err != nil {
			return nil, err
		}
		*d.out = &t
	}
	if req.Dependents != nil {
		if update.Dependents, err = wireToDependents(req.Dependents); err != nil {
			return nil, err
		}
	}
	return update, nil
}

// modelToWire converts a domain record for the wire.
func modelToWire(ce *models.CensusEmployee) *CensusEmployee {
	if ce == nil {
		return nil
	}
	out := &CensusEmployee{
		ID:                     ce.ID.String(),
		EmployerProfileID:      ce.EmployerProfileID.String(),
		FirstName:              ce.FirstName,
		MiddleName:             ce.MiddleName,
		LastName:               ce.LastName,
		NameSfx:                ce.NameSfx,
		SSN:                    ce.SSN,
		DOB:                    formatDate(ce.DOB),
		Gender:                 ce.Gender,
		HiredOn:                formatDatePtr(ce.HiredOn),
		IsBusinessOwner:        ce.IsBusinessOwner,
		ExistingCobra:          ce.ExistingCobra,
		CobraBeginDate:         formatDatePtr(ce.CobraBeginDate),
		EmploymentTerminatedOn: formatDatePtr(ce.EmploymentTerminatedOn),
		CoverageTerminatedOn:   formatDatePtr(ce.CoverageTerminatedOn),
		State:                  string(ce.State),
		CurrentState:           ce.CurrentState(),
		Version:                ce.Version,
	}
	if ce.EmployeeRoleID != nil {
		out.EmployeeRoleID = ce.EmployeeRoleID.String()
	}
	for _, d := range ce.Dependents {
		out.Dependents = append(out.Dependents, &Dependent{
			ID:                   d.ID.String(),
			FirstName:            d.FirstName,
			MiddleName:           d.MiddleName,
			LastName:             d.LastName,
			DOB:                  formatDate(d.DOB),
			Gender:               d.Gender,
			SSN:                  d.SSN,
			EmployeeRelationship: string(d.EmployeeRelationship),
		})
	}
	for _, a := range ce.BenefitGroupAssignments {
		out.BenefitGroupAssignments = append(out.BenefitGroupAssignments, assignmentToWire(a))
	}
	return out
}

func modelsToWire(list []*models.CensusEmployee) []*CensusEmployee {
	out := make([]*CensusEmployee, 0, len(list))
	for _, ce := range list {
		out = append(out, modelToWire(ce))
	}
	return out
}

func assignmentToWire(a *models.BenefitGroupAssignment) *BenefitGroupAssignment {
	if a == nil {
		return nil
	}
	return &BenefitGroupAssignment{
		ID:             a.ID.String(),
		BenefitGroupID: a.BenefitGroupID.String(),
		StartOn:        formatDate(a.StartOn),
		EndOn:          formatDatePtr(a.EndOn),
		IsActive:       a.IsActive,
		State:          string(a.State),
	}
}

func enrollmentToWire(en *models.Enrollment) *Enrollment {
	return &Enrollment{
		ID:                       en.ID.String(),
		BenefitGroupAssignmentID: en.BenefitGroupAssignmentID.String(),
		CoverageKind:             en.CoverageKind,
		EffectiveOn:              formatDate(en.EffectiveOn),
		TerminatedOn:             formatDatePtr(en.TerminatedOn),
		State:                    string(en.State),
	}
}

func terminationToWire(ce *models.CensusEmployee, result *reconcile.Result) *TerminateEmploymentResponse {
	out := &TerminateEmploymentResponse{
		CensusEmployee:    modelToWire(ce),
		EnrollmentChanges: []*EnrollmentChange{},
	}
	if result == nil {
		return out
	}
	out.CoverageTerminatedOn = formatDate(result.CoverageTerminatedOn)
	for _, c := range result.Changes {
		out.EnrollmentChanges = append(out.EnrollmentChanges, &EnrollmentChange{
			EnrollmentID: c.EnrollmentID.String(),
			From:         string(c.From),
			To:           string(c.To),
			Outcome:      string(c.Outcome),
		})
	}
	return out
}

func eligibilityToWire(el *controller.Eligibility) *EligibilityResponse {
	out := &EligibilityResponse{
		CensusEmployee:            modelToWire(el.CensusEmployee),
		CurrentState:              el.CurrentState,
		IsLinked:                  el.IsLinked,
		IsActive:                  el.IsActive,
		IsCobraStatus:             el.IsCobraStatus,
		MayLinkEmployeeRole:       el.MayLinkEmployeeRole,
		MayElectCobra:             el.MayElectCobra,
		CanElectCobra:             el.CanElectCobra,
		IsDisabledCobraAction:     el.IsDisabledCobraAction,
		NewhireEnrollmentEligible: el.NewhireEnrollmentEligible,
		ShowPlanEndDate:           el.ShowPlanEndDate,
		EarliestEligibleDate:      formatDatePtr(el.EarliestEligibleDate),
		NewHireEnrollmentStart:    formatDate(el.NewHireEnrollmentPeriod.Start),
		NewHireEnrollmentEnd:      formatDate(el.NewHireEnrollmentPeriod.End),
		ActiveAssignment:          assignmentToWire(el.ActiveAssignment),
		RenewalAssignment:         assignmentToWire(el.RenewalAssignment),
		PublishedAssignment:       assignmentToWire(el.PublishedAssignment),
		EnrollmentsForDisplay:     make([]*Enrollment, 0, len(el.EnrollmentsForDisplay)),
		BusinessDate:              formatDate(el.BusinessDate),
	}
	for _, en := range el.EnrollmentsForDisplay {
		out.EnrollmentsForDisplay = append(out.EnrollmentsForDisplay, enrollmentToWire(en))
	}
	return out
}

// mapServiceError maps domain and repository errors to gRPC status codes.
// Validation failures carry a BadRequest detail per field message.
func (h *CensusHandler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, e.ErrValidation):
		st := status.New(codes.InvalidArgument, err.Error())
		if verr, ok := e.AsValidation(err); ok {
			br := &errdetails.BadRequest{}
			for field, msgs := range verr.Fields {
				for _, msg := range msgs {
					br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
						Field:       field,
						Description: msg,
					})
				}
			}
			if detailed, derr := st.WithDetails(br); derr == nil {
				st = detailed
			}
		}
		return st.Err()
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrIllegalTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, e.ErrConcurrentUpdate):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, e.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, e.ErrDuplicateIdentity):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}
