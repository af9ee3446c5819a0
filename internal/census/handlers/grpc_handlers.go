package handlers

import (
	"context"
	"time"

	"github.com/gartstein/census/internal/census/auth"
	"github.com/gartstein/census/internal/census/controller"
	"github.com/gartstein/census/internal/census/lifecycle"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/census/reconcile"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CensusController defines the business logic the gRPC and HTTP handlers
// invoke.
type CensusController interface {
	CreateCensusEmployee(ctx context.Context, ce *models.CensusEmployee) (*models.CensusEmployee, error)
	GetCensusEmployee(ctx context.Context, id uuid.UUID) (*models.CensusEmployee, error)
	UpdateCensusEmployee(ctx context.Context, actor models.Actor, update *models.CensusEmployeeUpdate) (*models.CensusEmployee, error)
	TerminateEmployment(ctx context.Context, id uuid.UUID, date time.Time) (*models.CensusEmployee, *reconcile.Result, error)
	Rehire(ctx context.Context, id uuid.UUID, hiredOn time.Time) (*models.CensusEmployee, error)
	ElectCobra(ctx context.Context, id uuid.UUID, beginDate time.Time) (*models.CensusEmployee, error)
	TerminateCobra(ctx context.Context, id uuid.UUID, date time.Time) (*models.CensusEmployee, error)
	LinkEmployeeRole(ctx context.Context, id, employeeRoleID uuid.UUID) (*models.CensusEmployee, error)
	DelinkEmployeeRole(ctx context.Context, id uuid.UUID) (*models.CensusEmployee, error)
	ConstructEmployeeRoleForMatchPerson(ctx context.Context, id uuid.UUID) (bool, error)
	NewlyDesignate(ctx context.Context, id uuid.UUID) (*models.CensusEmployee, error)
	FindOrCreateBenefitGroupAssignment(ctx context.Context, id, benefitGroupID uuid.UUID) (*models.BenefitGroupAssignment, error)
	UpdateAssignmentCoverage(ctx context.Context, id, assignmentID uuid.UUID, event lifecycle.AssignmentEvent) (*models.BenefitGroupAssignment, error)
	GetEligibility(ctx context.Context, id uuid.UUID) (*controller.Eligibility, error)
	FindAllByEmployerProfile(ctx context.Context, employerProfileID uuid.UUID) ([]*models.CensusEmployee, error)
	FindAllByEmployeeRole(ctx context.Context, employeeRoleID uuid.UUID) ([]*models.CensusEmployee, error)
	SearchByName(ctx context.Context, employerProfileID uuid.UUID, query string) ([]*models.CensusEmployee, error)
	FindAllTerminated(ctx context.Context, filter models.TerminatedFilter) ([]*models.CensusEmployee, error)
	Matchable(ctx context.Context, ssn string, dob time.Time) ([]*models.CensusEmployee, error)
	UpdateCensusEmployeeRecords(ctx context.Context, actor models.Actor, personID uuid.UUID) (int, error)
}

// CensusHandler implements CensusServer on top of a CensusController.
type CensusHandler struct {
	service CensusController
	logger  *zap.Logger
}

// NewCensusHandler constructs a CensusHandler.
func NewCensusHandler(service CensusController, logger *zap.Logger) *CensusHandler {
	return &CensusHandler{
		service: service,
		logger:  logger.Named("grpc_handler"),
	}
}

func (h *CensusHandler) invalid(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

// actor returns the authenticated caller. Protected methods always have one.
func (h *CensusHandler) actor(ctx context.Context) (models.Actor, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return models.Actor{}, status.Error(codes.Unauthenticated, "caller identity required")
	}
	return actor, nil
}

func (h *CensusHandler) CreateCensusEmployee(ctx context.Context, req *CreateCensusEmployeeRequest) (*CensusEmployeeResponse, error) {
	if req.CensusEmployee == nil {
		return nil, status.Error(codes.InvalidArgument, "census employee data required")
	}
	ce, err := wireToModel(req.CensusEmployee)
	if err != nil {
		return nil, h.invalid(err)
	}

	created, err := h.service.CreateCensusEmployee(ctx, ce)
	if err != nil {
		h.logger.Warn("Create census employee failed", zap.Error(err))
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeResponse{CensusEmployee: modelToWire(created)}, nil
}

func (h *CensusHandler) GetCensusEmployee(ctx context.Context, req *CensusEmployeeRequest) (*CensusEmployeeResponse, error) {
	id, err := parseID("census employee id", req.ID)
	if err != nil {
		return nil, h.invalid(err)
	}

	ce, err := h.service.GetCensusEmployee(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeResponse{CensusEmployee: modelToWire(ce)}, nil
}

func (h *CensusHandler) UpdateCensusEmployee(ctx context.Context, req *UpdateCensusEmployeeRequest) (*CensusEmployeeResponse, error) {
	actor, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	update, err := wireToUpdate(req)
	if err != nil {
		return nil, h.invalid(err)
	}

	updated, err := h.service.UpdateCensusEmployee(ctx, actor, update)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeResponse{CensusEmployee: modelToWire(updated)}, nil
}

// datedRequest parses the id and date of req.
func (h *CensusHandler) datedRequest(req *DatedRequest, field string) (uuid.UUID, time.Time, error) {
	id, err := parseID("census employee id", req.ID)
	if err != nil {
		return uuid.Nil, time.Time{}, h.invalid(err)
	}
	date, err := parseDate(field, req.Date)
	if err != nil {
		return uuid.Nil, time.Time{}, h.invalid(err)
	}
	return id, date, nil
}

func (h *CensusHandler) TerminateEmployment(ctx context.Context, req *DatedRequest) (*TerminateEmploymentResponse, error) {
	id, date, err := h.datedRequest(req, "employment_terminated_on")
	if err != nil {
		return nil, err
	}

	ce, result, err := h.service.TerminateEmployment(ctx, id, date)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return terminationToWire(ce, result), nil
}

func (h *CensusHandler) Rehire(ctx context.Context, req *DatedRequest) (*CensusEmployeeResponse, error) {
	id, date, err := h.datedRequest(req, "hired_on")
	if err != nil {
		return nil, err
	}

	ce, err := h.service.Rehire(ctx, id, date)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeResponse{CensusEmployee: modelToWire(ce)}, nil
}

func (h *CensusHandler) ElectCobra(ctx context.Context, req *DatedRequest) (*CensusEmployeeResponse, error) {
	id, date, err := h.datedRequest(req, "cobra_begin_date")
	if err != nil {
		return nil, err
	}

	ce, err := h.service.ElectCobra(ctx, id, date)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeResponse{CensusEmployee: modelToWire(ce)}, nil
}

func (h *CensusHandler) TerminateCobra(ctx context.Context, req *DatedRequest) (*CensusEmployeeResponse, error) {
	id, date, err := h.datedRequest(req, "cobra_terminated_on")
	if err != nil {
		return nil, err
	}

	ce, err := h.service.TerminateCobra(ctx, id, date)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeResponse{CensusEmployee: modelToWire(ce)}, nil
}

func (h *CensusHandler) LinkEmployeeRole(ctx context.Context, req *LinkEmployeeRoleRequest) (*CensusEmployeeResponse, error) {
	id, err := parseID("census employee id", req.ID)
	if err != nil {
		return nil, h.invalid(err)
	}
	roleID, err := parseID("employee_role_id", req.EmployeeRoleID)
	if err != nil {
		return nil, h.invalid(err)
	}

	ce, err := h.service.LinkEmployeeRole(ctx, id, roleID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeResponse{CensusEmployee: modelToWire(ce)}, nil
}

func (h *CensusHandler) DelinkEmployeeRole(ctx context.Context, req *CensusEmployeeRequest) (*CensusEmployeeResponse, error) {
	id, err := parseID("census employee id", req.ID)
	if err != nil {
		return nil, h.invalid(err)
	}

	ce, err := h.service.DelinkEmployeeRole(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeResponse{CensusEmployee: modelToWire(ce)}, nil
}

func (h *CensusHandler) ConstructEmployeeRole(ctx context.Context, req *CensusEmployeeRequest) (*ConstructEmployeeRoleResponse, error) {
	id, err := parseID("census employee id", req.ID)
	if err != nil {
		return nil, h.invalid(err)
	}

	linked, err := h.service.ConstructEmployeeRoleForMatchPerson(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ConstructEmployeeRoleResponse{Linked: linked}, nil
}

func (h *CensusHandler) NewlyDesignate(ctx context.Context, req *CensusEmployeeRequest) (*CensusEmployeeResponse, error) {
	id, err := parseID("census employee id", req.ID)
	if err != nil {
		return nil, h.invalid(err)
	}

	ce, err := h.service.NewlyDesignate(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeResponse{CensusEmployee: modelToWire(ce)}, nil
}

func (h *CensusHandler) AssignBenefitGroup(ctx context.Context, req *AssignBenefitGroupRequest) (*BenefitGroupAssignmentResponse, error) {
	id, err := parseID("census employee id", req.ID)
	if err != nil {
		return nil, h.invalid(err)
	}
	groupID, err := parseID("benefit_group_id", req.BenefitGroupID)
	if err != nil {
		return nil, h.invalid(err)
	}

	a, err := h.service.FindOrCreateBenefitGroupAssignment(ctx, id, groupID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &BenefitGroupAssignmentResponse{BenefitGroupAssignment: assignmentToWire(a)}, nil
}

func (h *CensusHandler) UpdateAssignmentCoverage(ctx context.Context, req *UpdateAssignmentCoverageRequest) (*BenefitGroupAssignmentResponse, error) {
	id, err := parseID("census employee id", req.ID)
	if err != nil {
		return nil, h.invalid(err)
	}
	assignmentID, err := parseID("benefit_group_assignment_id", req.BenefitGroupAssignmentID)
	if err != nil {
		return nil, h.invalid(err)
	}

	a, err := h.service.UpdateAssignmentCoverage(ctx, id, assignmentID, lifecycle.AssignmentEvent(req.Event))
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &BenefitGroupAssignmentResponse{BenefitGroupAssignment: assignmentToWire(a)}, nil
}

func (h *CensusHandler) GetEligibility(ctx context.Context, req *CensusEmployeeRequest) (*EligibilityResponse, error) {
	id, err := parseID("census employee id", req.ID)
	if err != nil {
		return nil, h.invalid(err)
	}

	el, err := h.service.GetEligibility(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return eligibilityToWire(el), nil
}

func (h *CensusHandler) ListCensusEmployees(ctx context.Context, req *ListCensusEmployeesRequest) (*CensusEmployeeListResponse, error) {
	employer, err := parseID("employer_profile_id", req.EmployerProfileID)
	if err != nil {
		return nil, h.invalid(err)
	}

	var list []*models.CensusEmployee
	if req.Query != "" {
		list, err = h.service.SearchByName(ctx, employer, req.Query)
	} else {
		list, err = h.service.FindAllByEmployerProfile(ctx, employer)
	}
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeListResponse{CensusEmployees: modelsToWire(list)}, nil
}

func (h *CensusHandler) ListByEmployeeRole(ctx context.Context, req *ListByEmployeeRoleRequest) (*CensusEmployeeListResponse, error) {
	roleID, err := parseID("employee_role_id", req.EmployeeRoleID)
	if err != nil {
		return nil, h.invalid(err)
	}

	list, err := h.service.FindAllByEmployeeRole(ctx, roleID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeListResponse{CensusEmployees: modelsToWire(list)}, nil
}

func (h *CensusHandler) ListTerminated(ctx context.Context, req *ListTerminatedRequest) (*CensusEmployeeListResponse, error) {
	var filter models.TerminatedFilter
	for _, raw := range req.EmployerProfileIDs {
		id, err := parseID("employer_profile_ids", raw)
		if err != nil {
			return nil, h.invalid(err)
		}
		filter.EmployerProfileIDs = append(filter.EmployerProfileIDs, id)
	}
	for _, d := range []struct {
		field string
		in    string
		out   *time.Time
	}{{"from", req.From, &filter.From}, {"to", req.To, &filter.To}} {
		t, err := parseOptionalDate(d.field, d.in)
		if err != nil {
			return nil, h.invalid(err)
		}
		if t != nil {
			*d.out = *t
		}
	}

	list, err := h.service.FindAllTerminated(ctx, filter)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeListResponse{CensusEmployees: modelsToWire(list)}, nil
}

func (h *CensusHandler) ListMatchable(ctx context.Context, req *ListMatchableRequest) (*CensusEmployeeListResponse, error) {
	dob, err := parseDate("dob", req.DOB)
	if err != nil {
		return nil, h.invalid(err)
	}

	list, err := h.service.Matchable(ctx, req.SSN, dob)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CensusEmployeeListResponse{CensusEmployees: modelsToWire(list)}, nil
}

func (h *CensusHandler) SyncPersonIdentity(ctx context.Context, req *SyncPersonIdentityRequest) (*SyncPersonIdentityResponse, error) {
	actor, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	personID, err := parseID("person_id", req.PersonID)
	if err != nil {
		return nil, h.invalid(err)
	}

	n, err := h.service.UpdateCensusEmployeeRecords(ctx, actor, personID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &SyncPersonIdentityResponse{Updated: n}, nil
}
