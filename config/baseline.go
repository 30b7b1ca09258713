package config

// baseline returns the built-in default configuration tree that every
// user configuration is deep-merged under. Values here are the ones the
// real broker deployments of this shape ship out of the box.
func baseline() Raw {
	return Raw{
		"vhosts": Raw{
			"/": Raw{
				"namespace":          "",
				"concurrency":        1,
				"connectionStrategy": "random",
				"publicationChannelPools": Raw{
					"default": Raw{"size": 1},
				},
				"connections": []interface{}{
					Raw{
						"protocol": "amqp",
						"hostname": "localhost",
						"port":     5672,
						"vhost":    "/",
					},
				},
				"exchanges": Raw{
					"": Raw{"assert": false},
				},
				"queues":   Raw{},
				"bindings": Raw{},
			},
		},
		"publications": Raw{
			"defaults": Raw{
				"vhost":      "/",
				"confirm":    true,
				"routingKey": "",
			},
		},
		"subscriptions": Raw{
			"defaults": Raw{
				"vhost":     "/",
				"prefetch":  10,
				"contentType": "application/json",
			},
		},
		"shovels":  Raw{},
		"counters": Raw{},
		"redeliveries": Raw{
			"counters": Raw{
				"stub": Raw{"type": "stub"},
				"inMemory": Raw{"type": "inMemory"},
			},
		},
		"encryption": Raw{},
		"defaults":   Raw{},
	}
}

// publicationDefaults returns the default attribute set applied to
// every publication before resolution.
func publicationDefaults() Raw {
	return Raw{
		"vhost":      "/",
		"confirm":    true,
		"routingKey": "",
		"deprecated": false,
	}
}

// subscriptionDefaults returns the default attribute set applied to
// every subscription before resolution.
func subscriptionDefaults() Raw {
	return Raw{
		"vhost":             "/",
		"prefetch":          10,
		"deferCloseChannel": 0,
	}
}

// vhostDefaults returns the default attribute set applied to every
// vhost entry before expansion.
func vhostDefaults() Raw {
	return Raw{
		"namespace":          "",
		"concurrency":        1,
		"connectionStrategy": "random",
		"publicationChannelPools": Raw{
			"default": Raw{"size": 1},
		},
	}
}

// connectionDefaults returns the attribute set every connection falls
// back to once URL-derived and config attributes have been applied.
func connectionDefaults() Raw {
	return Raw{
		"protocol": "amqp",
		"hostname": "localhost",
		"port":     5672,
		"vhost":    "/",
	}
}
