package upload

import "strings"

// Channel labels produced by classification.
const (
	ChannelDirect       = "Direct"
	ChannelDistributor  = "Distributor"
	ChannelDealer       = "Dealer"
	ChannelOverseas     = "Overseas"
	ChannelInterCompany = "Inter-Company"
)

// identityEntities carry the customer group straight through as the
// channel. Their exports already hold the final label in the Group column.
var identityEntities = map[string]bool{
	"OCEANIA":     true,
	"INDIA":       true,
	"JAPAN":       true,
	"MEXICO":      true,
	"NETHERLANDS": true,
	"GERMANY":     true,
	"UK":          true,
	"ASIA":        true,
	"EUROPE":      true,
	"SINGAPORE":   true,
	"CHINA":       true,
}

// distributorAccounts lists, per table-driven entity, the invoice accounts
// that are distributors even though their group code resolves to Direct.
var distributorAccounts = map[string]map[string]bool{
	"HQ": {
		"HC000140": true, "HC000282": true, "HC000290": true, "HC000382": true,
		"HC000469": true, "HC000543": true, "HC000586": true, "HC000785": true,
		"HC005195": true, "HC005197": true, "HC005873": true, "HC005974": true,
		"HC012621": true,
	},
	"KOROT": {
		"KC000140": true, "KC000282": true, "KC000382": true, "KC000469": true,
		"KC000543": true, "KC000586": true, "KC000785": true, "KC005873": true,
		"KC005974": true, "KC010343": true, "KC010367": true,
	},
	"HEALTHCARE": {
		"HCC000005": true, "HCC000006": true, "HCC000007": true, "HCC000008": true,
		"HCC000009": true, "HCC000010": true, "HCC000011": true, "HCC000012": true,
		"HCC000013": true, "HCC000273": true,
	},
}

// cgGroupChannels is the CG-code decision table shared by the home-market
// family of entities.
var cgGroupChannels = map[string]string{
	"CG11": ChannelDirect,
	"CG31": ChannelDirect,
	"CG12": ChannelOverseas,
	"CG21": ChannelInterCompany,
	"CG22": ChannelInterCompany,
}

// wordGroupChannels is the decision table for entities whose exports carry
// word codes instead of CG codes. Lookups are upper-cased first.
var wordGroupChannels = map[string]string{
	"DOMESTIC":   ChannelDirect,
	"ETC":        ChannelDirect,
	"INTERCOMPA": ChannelInterCompany,
	"OVERSEAS":   ChannelOverseas,
}

// entityGroupChannels enumerates the group-code resolution per entity.
// Entities absent here and from identityEntities never get a channel.
var entityGroupChannels = map[string]map[string]string{
	"HQ":         cgGroupChannels,
	"KOROT":      cgGroupChannels,
	"HEALTHCARE": cgGroupChannels,
	"VIETNAM": {
		"CG12": ChannelDirect,
		"CG16": ChannelDirect,
		"CG17": ChannelDirect,
		"CG31": ChannelDirect,
		"CG13": ChannelDistributor,
		"CG14": ChannelDealer,
		"CG15": ChannelDealer,
		"CG21": ChannelInterCompany,
		"CG22": ChannelInterCompany,
	},
	"BWA": wordGroupChannels,
	"USA": wordGroupChannels,
}

// wordCodeEntities upper-case the group before the table lookup; their
// exports are inconsistent about header casing.
var wordCodeEntities = map[string]bool{
	"BWA": true,
	"USA": true,
}

// ClassifyChannel derives the sales channel from the entity, the customer
// group code and the invoice account. A nil result means the inputs do not
// resolve to a channel and the column stays NULL.
func ClassifyChannel(entity, group, invoiceAccount string) *string {
	entity = strings.ToUpper(strings.TrimSpace(entity))
	group = strings.TrimSpace(group)
	invoiceAccount = strings.TrimSpace(invoiceAccount)

	if identityEntities[entity] {
		if group == "" {
			return nil
		}
		g := group
		return &g
	}

	// the USA distributor account wins over the group code, including when
	// the group is blank or unknown
	if entity == "USA" && invoiceAccount == "UC000001" {
		return strPtr(ChannelDistributor)
	}

	table, ok := entityGroupChannels[entity]
	if !ok {
		return nil
	}
	if wordCodeEntities[entity] {
		group = strings.ToUpper(group)
	}
	channel, ok := table[group]
	if !ok {
		return nil
	}
	if channel == ChannelDirect && distributorAccounts[entity][invoiceAccount] {
		return strPtr(ChannelDistributor)
	}
	return strPtr(channel)
}

func strPtr(s string) *string {
	return &s
}
