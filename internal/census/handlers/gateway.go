package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// endpoint binds a REST request to a handler call.
type endpoint func(r *http.Request, params map[string]string) (interface{}, error)

// Gateway exposes CensusServer as REST routes on a grpc-gateway ServeMux,
// together with the health and metrics endpoints.
type Gateway struct {
	mux       *runtime.ServeMux
	marshaler runtime.Marshaler
	server    CensusServer
	health    healthpb.HealthServer
	logger    *zap.Logger
}

// NewGateway registers the REST routes of server.
func NewGateway(server CensusServer, health healthpb.HealthServer, gatherer prometheus.Gatherer, logger *zap.Logger) (*Gateway, error) {
	g := &Gateway{
		mux:       runtime.NewServeMux(),
		marshaler: &runtime.JSONBuiltin{},
		server:    server,
		health:    health,
		logger:    logger.Named("http_gateway"),
	}
	if err := g.registerRoutes(gatherer); err != nil {
		return nil, err
	}
	return g, nil
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

func (g *Gateway) registerRoutes(gatherer prometheus.Gatherer) error {
	s := g.server
	routes := []struct {
		method  string
		pattern string
		ep      endpoint
	}{
		{http.MethodPost, "/v1/census_employees", func(r *http.Request, _ map[string]string) (interface{}, error) {
			req := &CreateCensusEmployeeRequest{CensusEmployee: &CensusEmployee{}}
			if err := g.decode(r, req.CensusEmployee); err != nil {
				return nil, err
			}
			return s.CreateCensusEmployee(r.Context(), req)
		}},
		{http.MethodGet, "/v1/census_employees/{id}", func(r *http.Request, p map[string]string) (interface{}, error) {
			return s.GetCensusEmployee(r.Context(), &CensusEmployeeRequest{ID: p["id"]})
		}},
		{http.MethodPatch, "/v1/census_employees/{id}", func(r *http.Request, p map[string]string) (interface{}, error) {
			req := &UpdateCensusEmployeeRequest{}
			if err := g.decode(r, req); err != nil {
				return nil, err
			}
			req.ID = p["id"]
			return s.UpdateCensusEmployee(r.Context(), req)
		}},
		{http.MethodPost, "/v1/census_employees/{id}/terminate", dated(g, s.TerminateEmployment)},
		{http.MethodPost, "/v1/census_employees/{id}/rehire", dated(g, s.Rehire)},
		{http.MethodPost, "/v1/census_employees/{id}/cobra", dated(g, s.ElectCobra)},
		{http.MethodPost, "/v1/census_employees/{id}/cobra/terminate", dated(g, s.TerminateCobra)},
		{http.MethodPost, "/v1/census_employees/{id}/link", func(r *http.Request, p map[string]string) (interface{}, error) {
			req := &LinkEmployeeRoleRequest{}
			if err := g.decode(r, req); err != nil {
				return nil, err
			}
			req.ID = p["id"]
			return s.LinkEmployeeRole(r.Context(), req)
		}},
		{http.MethodPost, "/v1/census_employees/{id}/delink", g.byID(s.DelinkEmployeeRole)},
		{http.MethodPost, "/v1/census_employees/{id}/construct_employee_role", func(r *http.Request, p map[string]string) (interface{}, error) {
			return s.ConstructEmployeeRole(r.Context(), &CensusEmployeeRequest{ID: p["id"]})
		}},
		{http.MethodPost, "/v1/census_employees/{id}/newly_designate", g.byID(s.NewlyDesignate)},
		{http.MethodPost, "/v1/census_employees/{id}/benefit_group_assignments", func(r *http.Request, p map[string]string) (interface{}, error) {
			req := &AssignBenefitGroupRequest{}
			if err := g.decode(r, req); err != nil {
				return nil, err
			}
			req.ID = p["id"]
			return s.AssignBenefitGroup(r.Context(), req)
		}},
		{http.MethodPost, "/v1/census_employees/{id}/benefit_group_assignments/{assignment_id}/coverage", func(r *http.Request, p map[string]string) (interface{}, error) {
			req := &UpdateAssignmentCoverageRequest{}
			if err := g.decode(r, req); err != nil {
				return nil, err
			}
			req.ID, req.BenefitGroupAssignmentID = p["id"], p["assignment_id"]
			return s.UpdateAssignmentCoverage(r.Context(), req)
		}},
		{http.MethodGet, "/v1/census_employees/{id}/eligibility", func(r *http.Request, p map[string]string) (interface{}, error) {
			return s.GetEligibility(r.Context(), &CensusEmployeeRequest{ID: p["id"]})
		}},
		{http.MethodGet, "/v1/employers/{employer_profile_id}/census_employees", func(r *http.Request, p map[string]string) (interface{}, error) {
			return s.ListCensusEmployees(r.Context(), &ListCensusEmployeesRequest{
				EmployerProfileID: p["employer_profile_id"],
				Query:             r.URL.Query().Get("query"),
			})
		}},
		{http.MethodGet, "/v1/employee_roles/{employee_role_id}/census_employees", func(r *http.Request, p map[string]string) (interface{}, error) {
			return s.ListByEmployeeRole(r.Context(), &ListByEmployeeRoleRequest{EmployeeRoleID: p["employee_role_id"]})
		}},
		{http.MethodGet, "/v1/terminated_census_employees", func(r *http.Request, _ map[string]string) (interface{}, error) {
			q := r.URL.Query()
			return s.ListTerminated(r.Context(), &ListTerminatedRequest{
				EmployerProfileIDs: q["employer_profile_id"],
				From:               q.Get("from"),
				To:                 q.Get("to"),
			})
		}},
		{http.MethodGet, "/v1/matchable_census_employees", func(r *http.Request, _ map[string]string) (interface{}, error) {
			q := r.URL.Query()
			return s.ListMatchable(r.Context(), &ListMatchableRequest{SSN: q.Get("ssn"), DOB: q.Get("dob")})
		}},
		{http.MethodPost, "/v1/people/{person_id}/sync", func(r *http.Request, p map[string]string) (interface{}, error) {
			return s.SyncPersonIdentity(r.Context(), &SyncPersonIdentityRequest{PersonID: p["person_id"]})
		}},
	}

	for _, rt := range routes {
		if err := g.mux.HandlePath(rt.method, rt.pattern, g.serve(rt.ep)); err != nil {
			return err
		}
	}

	metrics := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	if err := g.mux.HandlePath(http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		metrics.ServeHTTP(w, r)
	}); err != nil {
		return err
	}
	return g.mux.HandlePath(http.MethodGet, "/healthz", g.healthz)
}

// serve writes the endpoint result, or the error as a gRPC-mapped status.
func (g *Gateway) serve(ep endpoint) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		resp, err := ep(r, params)
		if err != nil {
			runtime.HTTPError(r.Context(), g.mux, g.marshaler, w, r, err)
			return
		}
		w.Header().Set("Content-Type", g.marshaler.ContentType(resp))
		if err := g.marshaler.NewEncoder(w).Encode(resp); err != nil {
			g.logger.Error("Failed to write response", zap.Error(err), zap.String("path", r.URL.Path))
		}
	}
}

// decode reads an optional JSON body into v.
func (g *Gateway) decode(r *http.Request, v interface{}) error {
	if err := g.marshaler.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return status.Errorf(codes.InvalidArgument, "malformed request body: %v", err)
	}
	return nil
}

func dated[Resp any](g *Gateway, call func(context.Context, *DatedRequest) (*Resp, error)) endpoint {
	return func(r *http.Request, p map[string]string) (interface{}, error) {
		req := &DatedRequest{}
		if err := g.decode(r, req); err != nil {
			return nil, err
		}
		req.ID = p["id"]
		return call(r.Context(), req)
	}
}

func (g *Gateway) byID(call func(context.Context, *CensusEmployeeRequest) (*CensusEmployeeResponse, error)) endpoint {
	return func(r *http.Request, p map[string]string) (interface{}, error) {
		return call(r.Context(), &CensusEmployeeRequest{ID: p["id"]})
	}
}

func (g *Gateway) healthz(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := g.health.Check(r.Context(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "not serving\n")
		return
	}
	_, _ = io.WriteString(w, "ok\n")
}
