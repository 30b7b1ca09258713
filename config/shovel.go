package config

import "regexp"

var shovelNamePattern = regexp.MustCompile(`^\s*(.+?)\s*->\s*(.+?)\s*$`)

// parseShovelName decodes a shovel name of the form
// `subscription -> publication`.
func parseShovelName(name string) (subscription, publication string, matched bool) {
	m := shovelNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func resolveShovel(name string, entry Raw) *Shovel {
	subscription := stringAttr(entry["subscription"])
	publication := stringAttr(entry["publication"])
	if parsedSub, parsedPub, ok := parseShovelName(name); ok {
		if subscription == "" {
			subscription = parsedSub
		}
		if publication == "" {
			publication = parsedPub
		}
	}
	return &Shovel{Name: name, Subscription: subscription, Publication: publication}
}
