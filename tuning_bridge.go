package drivershim

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	shimrpc "github.com/lensworks/drivershim/shimrpc"
)

// TuningClient is used by external tuning tools to push distortion
// values into a running driver process.
type TuningClient struct {
	cc      *grpc.ClientConn
	c       shimrpc.LensTuningServiceClient
	session string
}

func DialTuning(addr string) (*TuningClient, error) {
	// addr format: unix:////tmp/drivershim-tuning.sock
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &TuningClient{
		cc:      conn,
		c:       shimrpc.NewLensTuningServiceClient(conn),
		session: uuid.New().String(),
	}, nil
}

func (t *TuningClient) Close() error { return t.cc.Close() }

// PushSettings writes the given values into the distortion section and
// returns how many were applied.
func (t *TuningClient) PushSettings(ctx context.Context, values map[string]float64) (int, error) {
	req := &shimrpc.PutSettingsRequest{
		Section:   SettingsSection,
		SessionId: t.session,
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		req.Values = append(req.Values, shimrpc.SettingValue{Key: k, Value: values[k]})
	}

	resp, err := t.c.PutSettings(ctx, req)
	if err != nil {
		return 0, err
	}
	return int(resp.Applied), nil
}

// FetchSettings reads the named keys back from the driver's store.
func (t *TuningClient) FetchSettings(ctx context.Context, keys []string) (map[string]float64, error) {
	resp, err := t.c.GetSettings(ctx, &shimrpc.GetSettingsRequest{
		Section: SettingsSection,
		Keys:    keys,
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(resp.Values))
	for _, v := range resp.Values {
		out[v.Key] = v.Value
	}
	return out, nil
}

func RequireTuningAddrFromEnv(getenv func(string) string) (string, error) {
	addr := getenv("SHIM_TUNING_GRPC_ADDR")
	if addr == "" {
		return "", fmt.Errorf("SHIM_TUNING_GRPC_ADDR is required")
	}
	return addr, nil
}

// TuningBridge is the driver-side service: it writes pushed values into
// the settings store and posts a single settings-changed event so the
// lifecycle pump rebroadcasts to every live shim on the next frame.
type TuningBridge struct {
	shimrpc.UnimplementedLensTuningServiceServer

	settings WritableSettings
	sink     EventSink
	log      Logger
}

func NewTuningBridge(settings WritableSettings, sink EventSink, log Logger) *TuningBridge {
	return &TuningBridge{settings: settings, sink: sink, log: ensureLogger(log)}
}

// Register attaches the bridge to a gRPC registrar.
func (b *TuningBridge) Register(s grpc.ServiceRegistrar) {
	shimrpc.RegisterLensTuningServiceServer(s, b)
}

func (b *TuningBridge) PutSettings(_ context.Context, req *shimrpc.PutSettingsRequest) (*shimrpc.PutSettingsResponse, error) {
	section := req.Section
	if section == "" {
		section = SettingsSection
	}

	applied := int32(0)
	for _, v := range req.Values {
		if v.Key == "" {
			continue
		}
		b.settings.SetFloat(section, v.Key, v.Value)
		applied++
	}

	if applied > 0 && b.sink != nil {
		b.sink.PostEvent(Event{Type: EventDriverSettingsChanged})
	}
	b.log.Debug("tuning push", "session", req.SessionId, "section", section, "applied", applied)

	return &shimrpc.PutSettingsResponse{
		Applied:   applied,
		SessionId: req.SessionId,
		Message:   "ok",
	}, nil
}

func (b *TuningBridge) GetSettings(_ context.Context, req *shimrpc.GetSettingsRequest) (*shimrpc.GetSettingsResponse, error) {
	section := req.Section
	if section == "" {
		section = SettingsSection
	}

	resp := &shimrpc.GetSettingsResponse{Section: section}
	for _, key := range req.Keys {
		resp.Values = append(resp.Values, shimrpc.SettingValue{
			Key:   key,
			Value: b.settings.GetFloat(section, key),
		})
	}
	return resp, nil
}
