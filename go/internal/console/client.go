package console

import (
	"context"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mcdev12/bombprop/go/internal/game/engine"
	"github.com/mcdev12/bombprop/go/internal/game/input"
)

// Client calls a remote device's console service.
type Client struct {
	sendKeys   *connect.Client[wrapperspb.StringValue, wrapperspb.Int32Value]
	setButtons *connect.Client[structpb.Struct, emptypb.Empty]
	reset      *connect.Client[emptypb.Empty, emptypb.Empty]
	getState   *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewClient builds a console client for the device at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		sendKeys:   connect.NewClient[wrapperspb.StringValue, wrapperspb.Int32Value](httpClient, baseURL+SendKeysProcedure, opts...),
		setButtons: connect.NewClient[structpb.Struct, emptypb.Empty](httpClient, baseURL+SetButtonsProcedure, opts...),
		reset:      connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+ResetProcedure, opts...),
		getState:   connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetStateProcedure, opts...),
	}
}

// SendKeys returns how many keys the device queued.
func (c *Client) SendKeys(ctx context.Context, keys string) (int, error) {
	res, err := c.sendKeys.CallUnary(ctx, connect.NewRequest(wrapperspb.String(keys)))
	if err != nil {
		return 0, err
	}
	return int(res.Msg.GetValue()), nil
}

func (c *Client) SetButtons(ctx context.Context, state input.ButtonState) error {
	_, err := c.setButtons.CallUnary(ctx, connect.NewRequest(buttonsToStruct(state)))
	return err
}

func (c *Client) Reset(ctx context.Context) error {
	_, err := c.reset.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	return err
}

func (c *Client) GetState(ctx context.Context) (engine.Snapshot, error) {
	res, err := c.getState.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return engine.Snapshot{}, err
	}
	return snapshotFromStruct(res.Msg)
}
