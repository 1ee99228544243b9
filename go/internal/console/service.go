package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mcdev12/bombprop/go/internal/game/engine"
	"github.com/mcdev12/bombprop/go/internal/game/input"
)

// ServiceName is the fully-qualified name of the operator console service.
const ServiceName = "bombprop.v1.ConsoleService"

const (
	SendKeysProcedure   = "/" + ServiceName + "/SendKeys"
	SetButtonsProcedure = "/" + ServiceName + "/SetButtons"
	ResetProcedure      = "/" + ServiceName + "/Reset"
	GetStateProcedure   = "/" + ServiceName + "/GetState"
)

// Controller is the slice of the device the console may drive.
type Controller interface {
	SendKeys(keys string) int
	SetButtons(s input.ButtonState)
	RequestReset()
	Snapshot() engine.Snapshot
}

// Service implements the console RPCs against a Controller
type Service struct {
	ctrl Controller
}

// NewService creates a new console service
func NewService(ctrl Controller) *Service {
	return &Service{ctrl: ctrl}
}

// SendKeys queues keypad characters as if typed on the serial keypad.
// Whitespace is ignored; any other unknown character rejects the whole call.
func (s *Service) SendKeys(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[wrapperspb.Int32Value], error) {
	keys := strings.Join(strings.Fields(req.Msg.GetValue()), "")
	if keys == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("no keys given"))
	}
	for i := 0; i < len(keys); i++ {
		if _, err := input.ParseKey(keys[i]); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	accepted := s.ctrl.SendKeys(keys)
	if accepted < len(keys) {
		log.Warn().Int("sent", len(keys)).Int("accepted", accepted).Msg("input queue full, keys dropped")
	}
	return connect.NewResponse(wrapperspb.Int32(int32(accepted))), nil
}

// SetButtons sets the raw plant/defuse button levels. Fields left out are released.
func (s *Service) SetButtons(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[emptypb.Empty], error) {
	state, err := buttonsFromStruct(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	s.ctrl.SetButtons(state)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Reset aborts the current round and returns the device to the menu.
func (s *Service) Reset(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	log.Info().Msg("reset requested from console")
	s.ctrl.RequestReset()
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// GetState returns the latest snapshot as a JSON-shaped struct.
func (s *Service) GetState(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	st, err := snapshotToStruct(s.ctrl.Snapshot())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(st), nil
}

// NewHandler builds the HTTP handler for every console procedure and returns
// the path prefix to mount it on.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(SendKeysProcedure, connect.NewUnaryHandler(SendKeysProcedure, svc.SendKeys, opts...))
	mux.Handle(SetButtonsProcedure, connect.NewUnaryHandler(SetButtonsProcedure, svc.SetButtons, opts...))
	mux.Handle(ResetProcedure, connect.NewUnaryHandler(ResetProcedure, svc.Reset, opts...))
	mux.Handle(GetStateProcedure, connect.NewUnaryHandler(GetStateProcedure, svc.GetState, opts...))
	return "/" + ServiceName + "/", mux
}

// LoggingInterceptor logs every console call and its outcome code.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			res, err := next(ctx, req)
			evt := log.Debug()
			if err != nil {
				evt = log.Warn().Str("code", connect.CodeOf(err).String()).Err(err)
			}
			evt.Str("procedure", req.Spec().Procedure).Str("peer", req.Peer().Addr).Msg("console call")
			return res, err
		}
	}
}

func buttonsFromStruct(st *structpb.Struct) (input.ButtonState, error) {
	var state input.ButtonState
	for name, v := range st.GetFields() {
		b, ok := v.GetKind().(*structpb.Value_BoolValue)
		if !ok {
			return state, fmt.Errorf("button %q: expected bool", name)
		}
		switch name {
		case "plant":
			state.Plant = b.BoolValue
		case "defuse":
			state.Defuse = b.BoolValue
		default:
			return state, fmt.Errorf("unknown button %q", name)
		}
	}
	return state, nil
}

func buttonsToStruct(state input.ButtonState) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"plant":  structpb.NewBoolValue(state.Plant),
		"defuse": structpb.NewBoolValue(state.Defuse),
	}}
}

func snapshotToStruct(snap engine.Snapshot) (*structpb.Struct, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot struct: %w", err)
	}
	return st, nil
}

func snapshotFromStruct(st *structpb.Struct) (engine.Snapshot, error) {
	var snap engine.Snapshot
	data, err := json.Marshal(st.AsMap())
	if err != nil {
		return snap, fmt.Errorf("failed to marshal state struct: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}
