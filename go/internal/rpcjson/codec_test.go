package rpcjson

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
)

type echoRequest struct {
	Text string `json:"text"`
}

type echoResponse struct {
	Text   string `json:"text"`
	Length int    `json:"length"`
}

func TestCodecRoundTripsThroughConnect(t *testing.T) {
	const procedure = "/livepoll.v1.EchoService/Echo"

	mux := http.NewServeMux()
	mux.Handle(procedure, connect.NewUnaryHandler(
		procedure,
		func(ctx context.Context, req *connect.Request[echoRequest]) (*connect.Response[echoResponse], error) {
			if req.Msg.Text == "" {
				return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("text is required"))
			}
			return connect.NewResponse(&echoResponse{Text: req.Msg.Text, Length: len(req.Msg.Text)}), nil
		},
		Option(),
	))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := connect.NewClient[echoRequest, echoResponse](srv.Client(), srv.URL+procedure, Option())

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{Text: "poll"}))
	if err != nil {
		t.Fatalf("CallUnary() error = %v", err)
	}
	if res.Msg.Text != "poll" || res.Msg.Length != 4 {
		t.Errorf("response = %+v", res.Msg)
	}

	_, err = client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("code = %v, want invalid_argument", connect.CodeOf(err))
	}
}
