// Package config implements the Configurator and Validator: the pipeline
// that turns a sparse, user-supplied topology description into a fully
// resolved one, ready to be materialized by the broker facade.
package config

// Raw is the generic tree user configuration is decoded into before
// expansion. Every Configurator phase operates on this shape; the final,
// validated tree is decoded once into the Resolved* structs below.
type Raw = map[string]interface{}

// Resolved is the fully expanded, validated configuration tree, ready
// to be handed to the topology and broker layers.
type Resolved struct {
	Vhosts        map[string]*Vhost        `yaml:"vhosts"`
	Publications  map[string]*Publication  `yaml:"publications"`
	Subscriptions map[string]*Subscription `yaml:"subscriptions"`
	Shovels       map[string]*Shovel       `yaml:"shovels"`
	Counters      map[string]*Counter      `yaml:"counters"`
	Encryption    map[string]*EncryptionProfile `yaml:"encryption"`
	Defaults      Raw                      `yaml:"defaults,omitempty"`
}

// ChannelPool describes one of a vhost's named publication channel pools.
type ChannelPool struct {
	Size int `yaml:"size"`
}

// Vhost is the resolved form of a virtual host entry.
type Vhost struct {
	Name                    string                  `yaml:"name"`
	Namespace               string                  `yaml:"namespace,omitempty"`
	Concurrency             int                     `yaml:"concurrency"`
	ConnectionStrategy      string                  `yaml:"connection_strategy"`
	PublicationChannelPools map[string]ChannelPool  `yaml:"publication_channel_pools,omitempty"`
	Connections             []*Connection           `yaml:"connections,omitempty"`
	Exchanges               map[string]*Exchange    `yaml:"exchanges,omitempty"`
	Queues                  map[string]*Queue       `yaml:"queues,omitempty"`
	Bindings                map[string]*Binding     `yaml:"bindings,omitempty"`
	Defaults                Raw                     `yaml:"defaults,omitempty"`
}

// ManagementAuth holds the credentials used against the broker's
// management HTTP API, which may differ from the AMQP credentials.
type ManagementAuth struct {
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// ManagementConnection describes how to reach the broker's management
// plane for a given AMQP connection.
type ManagementConnection struct {
	Hostname    string          `yaml:"hostname,omitempty"`
	URL         string          `yaml:"url,omitempty"`
	LoggableURL string          `yaml:"loggable_url,omitempty"`
	Auth        ManagementAuth  `yaml:"auth,omitempty"`
}

// Connection is one fully resolved AMQP connection entry for a vhost.
type Connection struct {
	Protocol      string                 `yaml:"protocol"`
	Hostname      string                 `yaml:"hostname"`
	Port          int                    `yaml:"port"`
	User          string                 `yaml:"user,omitempty"`
	Password      string                 `yaml:"password,omitempty"`
	Vhost         string                 `yaml:"vhost,omitempty"`
	Options       map[string]string      `yaml:"options,omitempty"`
	SocketOptions Raw                    `yaml:"socket_options,omitempty"`
	Management    ManagementConnection   `yaml:"management"`
	URL           string                 `yaml:"url"`
	LoggableURL   string                 `yaml:"loggable_url"`
}

// Exchange is a resolved exchange declaration.
type Exchange struct {
	Name               string `yaml:"name"`
	FullyQualifiedName string `yaml:"fully_qualified_name"`
	Type               string `yaml:"type,omitempty"`
	Options            Raw    `yaml:"options,omitempty"`
}

// Queue is a resolved queue declaration.
type Queue struct {
	Name               string `yaml:"name"`
	FullyQualifiedName string `yaml:"fully_qualified_name"`
	Options            Raw    `yaml:"options,omitempty"`
	ReplyTo            string `yaml:"reply_to,omitempty"`
}

// Binding is a resolved binding between a source exchange and a
// destination exchange or queue.
type Binding struct {
	Name               string `yaml:"name"`
	Source             string `yaml:"source"`
	Destination        string `yaml:"destination"`
	BindingKey         string `yaml:"binding_key,omitempty"`
	QualifyBindingKeys bool   `yaml:"qualify_binding_keys,omitempty"`
}

// EncryptionProfile describes a named symmetric cipher configuration.
type EncryptionProfile struct {
	Name      string `yaml:"name"`
	Key       string `yaml:"key"`
	IVLength  int    `yaml:"iv_length"`
	Algorithm string `yaml:"algorithm"`
}

// Publication is a resolved, named routing endpoint.
type Publication struct {
	Name        string             `yaml:"name"`
	Vhost       string             `yaml:"vhost"`
	Exchange    string             `yaml:"exchange,omitempty"`
	Queue       string             `yaml:"queue,omitempty"`
	Destination string             `yaml:"destination,omitempty"`
	RoutingKey  string             `yaml:"routing_key,omitempty"`
	Confirm     bool               `yaml:"confirm"`
	Encryption  *EncryptionProfile `yaml:"encryption,omitempty"`
	ReplyTo     string             `yaml:"reply_to,omitempty"`
	Deprecated  bool               `yaml:"deprecated,omitempty"`
	AutoCreated bool               `yaml:"auto_created"`

	// ChannelPool names the vhost's publication_channel_pools entry this
	// publication publishes through. Empty selects the vhost's default
	// (unpooled) channel.
	ChannelPool string `yaml:"channel_pool,omitempty"`
}

// Subscription is a resolved, named consumer endpoint.
type Subscription struct {
	Name         string                        `yaml:"name"`
	Vhost        string                        `yaml:"vhost"`
	Queue        string                        `yaml:"queue"`
	Source       string                        `yaml:"source"`
	Prefetch     int                           `yaml:"prefetch"`
	Redeliveries Raw                           `yaml:"redeliveries,omitempty"`
	Encryption   map[string]*EncryptionProfile `yaml:"encryption,omitempty"`
	AutoCreated  bool                          `yaml:"auto_created"`

	// DeferCloseChannelMS is the horizon, in milliseconds, unsubscribeAll
	// waits for this subscription's consumer channel to finish closing
	// once every session on it has cancelled.
	DeferCloseChannelMS int `yaml:"defer_close_channel_ms,omitempty"`
}

// Shovel pairs a subscription and a publication for message bridging.
type Shovel struct {
	Name         string `yaml:"name"`
	Subscription string `yaml:"subscription"`
	Publication  string `yaml:"publication"`
}

// Counter is a resolved redelivery-tracking component declaration.
type Counter struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Options Raw    `yaml:"options,omitempty"`
}
