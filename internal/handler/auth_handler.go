package handler

import (
	"context"
	"strings"

	"clinic-scheduling-api/internal/account"
	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/rpc"
)

func (h *Handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
		return nil, h.toStatus(ctx, rpc.MethodLogin, apperr.Invalid("identifier and password required"))
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, h.toStatus(ctx, rpc.MethodLogin, apperr.Invalid("unknown role %q", req.Role))
	}

	var s *account.Session
	switch role {
	case auth.RoleAdmin:
		s, err = h.accounts.AdminLogin(ctx, req.Identifier, req.Password)
	case auth.RoleDoctor:
		s, err = h.accounts.DoctorLogin(ctx, req.Identifier, req.Password)
	default:
		s, err = h.accounts.PatientLogin(ctx, req.Identifier, req.Password)
	}
	if err != nil {
		return nil, h.toStatus(ctx, rpc.MethodLogin, err)
	}

	return &rpc.LoginResponse{Token: s.Token, Role: string(s.Role), UserID: s.UserID}, nil
}
