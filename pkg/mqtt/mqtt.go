// Package mqtt connects the bot to the MQTT broker. Sanction lifecycle events
// are published on it and other services query the bot over request topics.
package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

const (
	requestPrefix  = "pancymod/request/"
	responsePrefix = "pancymod/response/"
)

// MqttRequest represents an MQTT request message
type MqttRequest struct {
	CorrelationID string          `json:"correlationId"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// MqttResponse represents an MQTT response message
type MqttResponse struct {
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

// MqttCommunicator owns the broker connection. Served request topics are
// remembered and subscribed again after every reconnect.
type MqttCommunicator struct {
	client   mqtt.Client
	clientID string

	mu     sync.Mutex
	served map[string]mqtt.MessageHandler
}

// NewMqttCommunicator creates the client and starts connecting. It does not
// block for long: paho keeps retrying in the background.
func NewMqttCommunicator(host, port, username, password, clientID string) *MqttCommunicator {
	mc := &MqttCommunicator{
		clientID: clientID,
		served:   make(map[string]mqtt.MessageHandler),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(fmt.Sprintf("%s_%s", clientID, uuid.NewString())).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(mc.onConnect).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	mc.client = mqtt.NewClient(opts)

	token := mc.client.Connect()
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}
	return mc
}

func (mc *MqttCommunicator) onConnect(c mqtt.Client) {
	logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", mc.clientID), "MQTT")

	mc.mu.Lock()
	defer mc.mu.Unlock()
	for topic, handler := range mc.served {
		mc.subscribe(topic, handler)
	}
}

// subscribe does not wait for the broker; failures are logged
func (mc *MqttCommunicator) subscribe(topic string, handler mqtt.MessageHandler) {
	token := mc.client.Subscribe(topic, 1, handler)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			logger.Error(fmt.Sprintf("Error subscribing to topic %s: %v", topic, token.Error()), "MQTT")
		}
	}()
}

// Destroy closes the MQTT connection
func (mc *MqttCommunicator) Destroy() {
	if mc.client != nil && mc.client.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
	} else {
		logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (mc *MqttCommunicator) IsConnected() bool {
	return mc.client != nil && mc.client.IsConnected()
}

// Publish sends payload as JSON with QoS 1
func (mc *MqttCommunicator) Publish(topic string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, 1, false, body)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// RequestHandler answers one request. payload is the raw JSON body.
type RequestHandler func(payload json.RawMessage) (interface{}, error)

// On serves requests published on pancymod/request/<requestTopic>. Each
// request carries a correlation id; the answer goes to
// pancymod/response/<requestTopic>/<correlationId>.
func (mc *MqttCommunicator) On(requestTopic string, callback RequestHandler) {
	topic := requestPrefix + requestTopic
	handler := func(c mqtt.Client, msg mqtt.Message) {
		defer apperrors.RecoverMiddleware()()

		responseTopic, response, ok := serve(msg.Topic(), msg.Payload(), callback)
		if !ok {
			return
		}
		if err := mc.Publish(responseTopic, response); err != nil {
			logger.Error(fmt.Sprintf("Error publishing MQTT response on %s: %v", responseTopic, err), "MQTT")
		}
	}

	mc.mu.Lock()
	mc.served[topic] = handler
	mc.mu.Unlock()

	if mc.IsConnected() {
		mc.subscribe(topic, handler)
	}
}

// serve decodes one request and runs callback. ok is false for undecodable
// requests, which get no response.
func serve(receivedTopic string, body []byte, callback RequestHandler) (string, MqttResponse, bool) {
	var request MqttRequest
	if err := json.Unmarshal(body, &request); err != nil {
		logger.Error(fmt.Sprintf("Error parsing MQTT request: %v", err), "MQTT")
		return "", MqttResponse{}, false
	}

	actualTopic := strings.TrimPrefix(receivedTopic, requestPrefix)
	responseTopic := responsePrefix + actualTopic + "/" + request.CorrelationID

	response := MqttResponse{CorrelationID: request.CorrelationID}
	data, err := callback(request.Payload)
	if err != nil {
		response.Error = err.Error()
	} else {
		response.Data = data
	}
	return responseTopic, response, true
}
