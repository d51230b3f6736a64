package bridge

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relabs-tech/wolkenio/connect"
)

// nopTransport satisfies connect.Transport for tests which never talk to
// the cloud.
type nopTransport struct{}

func (nopTransport) FetchPendingNotifications(ctx context.Context) (*connect.NotificationBatch, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (nopTransport) DeletePullChannel(ctx context.Context) error { return nil }

func (nopTransport) GetWebhook(ctx context.Context) (*connect.Webhook, error) { return nil, nil }

func (nopTransport) PutWebhook(ctx context.Context, webhook connect.Webhook) error { return nil }

func (nopTransport) DeleteWebhook(ctx context.Context) error { return nil }

func (nopTransport) ResourceRequest(ctx context.Context, op connect.ResourceOperation, deviceID, resourcePath string, payload []byte) (*connect.OperationResult, error) {
	return &connect.OperationResult{}, nil
}

type KafkaForwarderSuite struct {
	suite.Suite
	network        testcontainers.Network
	kafkaContainer testcontainers.Container
	kafkaConn      *kafka.Conn
	kafkaAddr      string
}

func TestKafkaForwarderIntegration(t *testing.T) {
	if os.Getenv("KAFKA_INTEGRATION") == "" {
		t.Skip("set KAFKA_INTEGRATION to run the kafka container test")
	}
	suite.Run(t, &KafkaForwarderSuite{})
}

func (s *KafkaForwarderSuite) SetupSuite() {
	ctx := context.Background()

	networkName := fmt.Sprintf("test-kafka-network_%d", time.Now().Unix())
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{
			Name:           networkName,
			CheckDuplicate: true,
		},
	})
	s.Require().NoError(err)
	s.network = network

	zooReq := testcontainers.ContainerRequest{
		Image:        "confluentinc/cp-zookeeper:7.5.0",
		ExposedPorts: []string{"2181/tcp"},
		Env: map[string]string{
			"ZOOKEEPER_CLIENT_PORT": "2181",
			"ZOOKEEPER_TICK_TIME":   "2000",
		},
		WaitingFor:     wait.ForListeningPort("2181/tcp"),
		Networks:       []string{networkName},
		NetworkAliases: map[string][]string{networkName: {"zookeeper"}},
	}
	_, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: zooReq,
		Started:          true,
	})
	s.Require().NoError(err)

	kafkaReq := testcontainers.ContainerRequest{
		Image:        "confluentinc/cp-kafka:7.5.0",
		ExposedPorts: []string{"9092:9092/tcp", "29092:29092/tcp"},
		Env: map[string]string{
			"KAFKA_BROKER_ID":                        "1",
			"KAFKA_ZOOKEEPER_CONNECT":                "zookeeper:2181",
			"KAFKA_LISTENERS":                        "PLAINTEXT://0.0.0.0:9092,PLAINTEXT_HOST://0.0.0.0:29092,EXTERNAL://0.0.0.0:9093",
			"KAFKA_ADVERTISED_LISTENERS":             "PLAINTEXT://localhost:9092,PLAINTEXT_HOST://localhost:29092,EXTERNAL://kafka:9093",
			"KAFKA_LISTENER_SECURITY_PROTOCOL_MAP":   "PLAINTEXT:PLAINTEXT,PLAINTEXT_HOST:PLAINTEXT,EXTERNAL:PLAINTEXT",
			"KAFKA_OFFSETS_TOPIC_REPLICATION_FACTOR": "1",
			"ALLOW_PLAINTEXT_LISTENER":               "yes",
		},
		WaitingFor:     wait.ForLog("started (kafka.server.KafkaServer)"),
		Networks:       []string{networkName},
		NetworkAliases: map[string][]string{networkName: {"kafka"}},
	}
	kafkaC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: kafkaReq,
		Started:          true,
	})
	s.Require().NoError(err)
	s.kafkaContainer = kafkaC

	kafkaHost, err := kafkaC.Host(ctx)
	s.Require().NoError(err)
	kafkaPort, err := kafkaC.MappedPort(ctx, "9092")
	s.Require().NoError(err)
	s.kafkaAddr = fmt.Sprintf("%s:%s", kafkaHost, kafkaPort.Port())

	s.kafkaConn, err = kafka.Dial("tcp", s.kafkaAddr)
	s.Require().NoError(err)

	err = s.kafkaConn.CreateTopics(kafka.TopicConfig{
		Topic:             "device_events",
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	s.Require().NoError(err)
}

func (s *KafkaForwarderSuite) TearDownSuite() {
	ctx := context.Background()
	if s.kafkaConn != nil {
		s.kafkaConn.Close()
	}
	if s.kafkaContainer != nil {
		s.kafkaContainer.Terminate(ctx)
	}
	if s.network != nil {
		s.network.Remove(ctx)
	}
}

func (s *KafkaForwarderSuite) TestForwardNotification() {
	forwarder := NewKafkaForwarder([]string{s.kafkaAddr}, "device_events")
	defer forwarder.Close()

	c := connect.New(&connect.Builder{Transport: nopTransport{}})
	forwarder.Attach(c)

	payload := []byte(`{"notifications": [{"device_id": "device-1", "resource_path": "/3/0/1", "payload": "NDI="}]}`)
	var batch connect.NotificationBatch
	s.Require().NoError(json.Unmarshal(payload, &batch))
	c.Notify(&batch)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{s.kafkaAddr},
		Topic:   "device_events",
	})
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	message, err := reader.ReadMessage(ctx)
	s.Require().NoError(err)
	s.Equal("device-1", string(message.Key))

	var envelope Envelope
	s.Require().NoError(json.Unmarshal(message.Value, &envelope))
	s.Equal(connect.EventNotification, envelope.Kind)
	s.Require().NotNil(envelope.Resource)
	s.Equal("/3/0/1", envelope.Resource.Path)
	s.Equal(42.0, envelope.Resource.Payload)
}
