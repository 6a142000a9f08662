// Copyright (c) 2017 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// publisher is the part of the MQTT connection the gateway publishes through.
type publisher interface {
	Publish(topic string, retained bool, payload interface{}) error
}

// mq is a handle onto a MQTT broker connection.
type mq struct {
	conn paho.Client
	conf MQTTConfig

	subMu sync.Mutex
	subs  map[string]func(payload []byte) // subscriptions, renewed after a reconnect
}

// newMQ connects to a broker and returns a new mq object. The connection is persistent, i.e.,
// re-establishes itself if there is a disconnect. Subscriptions also get renewed after a reconnect.
func newMQ(conf MQTTConfig) (*mq, error) {
	m := &mq{conf: conf, subs: make(map[string]func([]byte))}

	id := conf.ClientID
	if id == "" {
		hostname, _ := os.Hostname()
		id = "pibfilter-" + hostname
	}
	opts := paho.NewClientOptions()
	opts.AddBroker(conf.Server)
	opts.SetClientID(id)
	opts.SetUsername(conf.Username)
	opts.SetPassword(conf.Password)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(m.onConnected)
	opts.SetConnectionLostHandler(m.onConnectionLost)

	log.WithFields(log.Fields{"server": conf.Server, "client_id": id}).Info("mqtt: connecting to broker")
	m.conn = paho.NewClient(opts)
	token := m.conn.Connect()
	if !token.WaitTimeout(conf.ConnectTimeout) {
		m.conn.Disconnect(0)
		return nil, errors.Errorf("mqtt: timeout connecting to %s", conf.Server)
	}
	if err := token.Error(); err != nil {
		m.conn.Disconnect(0)
		return nil, errors.Wrap(err, "mqtt: connect error")
	}
	return m, nil
}

func (m *mq) onConnected(c paho.Client) {
	mqttConnectCounter().Inc()
	log.Info("mqtt: connected to broker")

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for topic, h := range m.subs {
		if err := m.subscribe(topic, h); err != nil {
			log.WithError(err).WithField("topic", topic).Error("mqtt: resubscribe error")
		}
	}
}

func (m *mq) onConnectionLost(c paho.Client, err error) {
	mqttDisconnectCounter().Inc()
	log.WithError(err).Error("mqtt: connection lost")
}

// Publish marshals the payload to JSON and publishes it.
func (m *mq) Publish(topic string, retained bool, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "mqtt: marshal error")
	}
	token := m.conn.Publish(topic, m.conf.QOS, retained, b)
	if !token.WaitTimeout(2 * time.Second) {
		return errors.Errorf("mqtt: timeout publishing to %s", topic)
	}
	return errors.Wrapf(token.Error(), "mqtt: publish to %s error", topic)
}

// Subscribe subscribes to a topic, calling handler with the raw payload of each message. The
// handler runs on paho's goroutines.
func (m *mq) Subscribe(topic string, handler func(payload []byte)) error {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subs[topic] = handler
	return m.subscribe(topic, handler)
}

func (m *mq) subscribe(topic string, handler func(payload []byte)) error {
	log.WithFields(log.Fields{"topic": topic, "qos": m.conf.QOS}).Info("mqtt: subscribing")
	cb := func(c paho.Client, msg paho.Message) { handler(msg.Payload()) }
	token := m.conn.Subscribe(topic, m.conf.QOS, cb)
	if !token.WaitTimeout(2 * time.Second) {
		return errors.Errorf("mqtt: timeout subscribing to %s", topic)
	}
	return errors.Wrapf(token.Error(), "mqtt: subscribe to %s error", topic)
}

// Close unsubscribes and disconnects.
func (m *mq) Close() {
	m.subMu.Lock()
	topics := make([]string, 0, len(m.subs))
	for t := range m.subs {
		topics = append(topics, t)
	}
	m.subs = map[string]func([]byte){}
	m.subMu.Unlock()

	if len(topics) > 0 {
		m.conn.Unsubscribe(topics...).WaitTimeout(2 * time.Second)
	}
	m.conn.Disconnect(250)
	log.Info("mqtt: disconnected")
}
