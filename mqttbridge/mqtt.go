package mqttbridge

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/temoto/sonar/config"
	"github.com/temoto/sonar/log2"
)

const (
	defaultNetworkTimeout = 5 * time.Second
	payloadOnline         = "1"
	payloadOffline        = "0"
)

// MQTT is Publisher over paho client. Retained <prefix>/<family>/online
// topic is "1" while connected, broker sets "0" via will message.
type MQTT struct {
	log         *log2.Log
	m           mqtt.Client
	mopt        *mqtt.ClientOptions
	topicOnline string
	timeout     time.Duration
}

func ClientID(c config.BridgeConfig) string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return "sonar-" + uuid.NewString()
}

func NewMQTT(log *log2.Log, c config.BridgeConfig, family string) *MQTT {
	mqttLog := log.Clone(log2.LDebug)
	mqtt.CRITICAL = mqttLog
	mqtt.ERROR = mqttLog
	mqtt.WARN = mqttLog

	self := &MQTT{
		log:         log,
		topicOnline: Topic(c.TopicPrefix, family, "online"),
		timeout:     defaultNetworkTimeout,
	}
	self.mopt = mqtt.NewClientOptions().
		AddBroker(c.Broker).
		SetAutoReconnect(true).
		SetClientID(ClientID(c)).
		SetUsername(c.Username).
		SetPassword(c.Password).
		SetConnectTimeout(3 * self.timeout).
		SetKeepAlive(self.timeout * 6).
		SetPingTimeout(self.timeout).
		SetWriteTimeout(self.timeout).
		SetMaxReconnectInterval(3 * self.timeout).
		SetOrderMatters(false).
		SetWill(self.topicOnline, payloadOffline, 1, true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Errorf("mqtt connection lost: %v", err)
		}).
		SetOnConnectHandler(func(m mqtt.Client) {
			log.Infof("mqtt connected")
			m.Publish(self.topicOnline, 1, true, payloadOnline)
		})
	self.m = mqtt.NewClient(self.mopt)
	return self
}

// Connect retries until success or ctx is done.
func (self *MQTT) Connect(ctx context.Context) error {
	for {
		err := self.tokenWait(self.m.Connect(), "connect")
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Annotate(ctx.Err(), "mqtt connect")
		case <-time.After(time.Second):
		}
	}
}

func (self *MQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	return self.tokenWait(self.m.Publish(topic, qos, retained, payload), "publish:"+topic)
}

func (self *MQTT) Close() {
	if self.m.IsConnected() {
		_ = self.tokenWait(self.m.Publish(self.topicOnline, 1, true, payloadOffline), "publish offline")
		self.m.Disconnect(uint(self.timeout / time.Millisecond))
	}
}

func (self *MQTT) tokenWait(t mqtt.Token, tag string) error {
	if !t.WaitTimeout(self.timeout) {
		err := errors.Timeoutf("mqtt %s", tag)
		self.log.Error(err)
		return err
	}
	if err := t.Error(); err != nil {
		err = errors.Annotatef(err, "mqtt %s", tag)
		self.log.Error(err)
		return err
	}
	return nil
}
