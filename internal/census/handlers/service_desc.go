package handlers

import (
	"context"

	"github.com/gartstein/census/internal/census/auth"
	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "census.v1.CensusService"

// CensusServer is the server API of census.v1.CensusService.
type CensusServer interface {
	CreateCensusEmployee(context.Context, *CreateCensusEmployeeRequest) (*CensusEmployeeResponse, error)
	GetCensusEmployee(context.Context, *CensusEmployeeRequest) (*CensusEmployeeResponse, error)
	UpdateCensusEmployee(context.Context, *UpdateCensusEmployeeRequest) (*CensusEmployeeResponse, error)
	TerminateEmployment(context.Context, *DatedRequest) (*TerminateEmploymentResponse, error)
	Rehire(context.Context, *DatedRequest) (*CensusEmployeeResponse, error)
	ElectCobra(context.Context, *DatedRequest) (*CensusEmployeeResponse, error)
	TerminateCobra(context.Context, *DatedRequest) (*CensusEmployeeResponse, error)
	LinkEmployeeRole(context.Context, *LinkEmployeeRoleRequest) (*CensusEmployeeResponse, error)
	DelinkEmployeeRole(context.Context, *CensusEmployeeRequest) (*CensusEmployeeResponse, error)
	ConstructEmployeeRole(context.Context, *CensusEmployeeRequest) (*ConstructEmployeeRoleResponse, error)
	NewlyDesignate(context.Context, *CensusEmployeeRequest) (*CensusEmployeeResponse, error)
	AssignBenefitGroup(context.Context, *AssignBenefitGroupRequest) (*BenefitGroupAssignmentResponse, error)
	UpdateAssignmentCoverage(context.Context, *UpdateAssignmentCoverageRequest) (*BenefitGroupAssignmentResponse, error)
	GetEligibility(context.Context, *CensusEmployeeRequest) (*EligibilityResponse, error)
	ListCensusEmployees(context.Context, *ListCensusEmployeesRequest) (*CensusEmployeeListResponse, error)
	ListByEmployeeRole(context.Context, *ListByEmployeeRoleRequest) (*CensusEmployeeListResponse, error)
	ListTerminated(context.Context, *ListTerminatedRequest) (*CensusEmployeeListResponse, error)
	ListMatchable(context.Context, *ListMatchableRequest) (*CensusEmployeeListResponse, error)
	SyncPersonIdentity(context.Context, *SyncPersonIdentityRequest) (*SyncPersonIdentityResponse, error)
}

// unary builds the method descriptor for one RPC, routing the call through
// the server's interceptor chain.
func unary[Req any, Resp any](name string, call func(CensusServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(CensusServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: auth.ServicePrefix + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(server, ctx, req.(*Req))
			})
		},
	}
}

// CensusServiceDesc describes census.v1.CensusService for grpc.Server.
var CensusServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CensusServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateCensusEmployee", CensusServer.CreateCensusEmployee),
		unary("GetCensusEmployee", CensusServer.GetCensusEmployee),
		unary("UpdateCensusEmployee", CensusServer.UpdateCensusEmployee),
		unary("TerminateEmployment", CensusServer.TerminateEmployment),
		unary("Rehire", CensusServer.Rehire),
		unary("ElectCobra", CensusServer.ElectCobra),
		unary("TerminateCobra", CensusServer.TerminateCobra),
		unary("LinkEmployeeRole", CensusServer.LinkEmployeeRole),
		unary("DelinkEmployeeRole", CensusServer.DelinkEmployeeRole),
		unary("ConstructEmployeeRole", CensusServer.ConstructEmployeeRole),
		unary("NewlyDesignate", CensusServer.NewlyDesignate),
		unary("AssignBenefitGroup", CensusServer.AssignBenefitGroup),
		unary("UpdateAssignmentCoverage", CensusServer.UpdateAssignmentCoverage),
		unary("GetEligibility", CensusServer.GetEligibility),
		unary("ListCensusEmployees", CensusServer.ListCensusEmployees),
		unary("ListByEmployeeRole", CensusServer.ListByEmployeeRole),
		unary("ListTerminated", CensusServer.ListTerminated),
		unary("ListMatchable", CensusServer.ListMatchable),
		unary("SyncPersonIdentity", CensusServer.SyncPersonIdentity),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: ServiceName,
}

// RegisterCensusServer registers srv on s.
func RegisterCensusServer(s grpc.ServiceRegistrar, srv CensusServer) {
	s.RegisterService(&CensusServiceDesc, srv)
}

var _ CensusServer = (*CensusHandler)(nil)
