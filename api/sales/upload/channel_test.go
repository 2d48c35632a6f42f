package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyChannelIdentityEntities(t *testing.T) {
	got := ClassifyChannel("INDIA", "Distributor", "")
	require.NotNil(t, got)
	assert.Equal(t, "Distributor", *got)

	// group passes through verbatim, even unusual labels
	got = ClassifyChannel("JAPAN", "Key Account", "")
	require.NotNil(t, got)
	assert.Equal(t, "Key Account", *got)

	assert.Nil(t, ClassifyChannel("OCEANIA", "", "ACC-1"))
}

func TestClassifyChannelGroupTables(t *testing.T) {
	cases := []struct {
		entity, group, account string
		want                   string
	}{
		{"HQ", "CG11", "HC999999", ChannelDirect},
		{"HQ", "CG11", "HC000140", ChannelDistributor},
		{"HQ", "CG31", "HC012621", ChannelDistributor},
		{"HQ", "CG12", "", ChannelOverseas},
		{"HQ", "CG21", "", ChannelInterCompany},
		{"HQ", "CG22", "", ChannelInterCompany},
		{"KOROT", "CG11", "KC010343", ChannelDistributor},
		{"KOROT", "CG11", "KC999999", ChannelDirect},
		{"HEALTHCARE", "CG31", "HCC000273", ChannelDistributor},
		{"HEALTHCARE", "CG31", "HCC000999", ChannelDirect},
		{"VIETNAM", "CG12", "", ChannelDirect},
		{"VIETNAM", "CG13", "", ChannelDistributor},
		{"VIETNAM", "CG14", "", ChannelDealer},
		{"VIETNAM", "CG15", "", ChannelDealer},
		{"VIETNAM", "CG16", "", ChannelDirect},
		{"VIETNAM", "CG21", "", ChannelInterCompany},
		{"BWA", "DOMESTIC", "", ChannelDirect},
		{"BWA", "etc", "", ChannelDirect},
		{"BWA", "Overseas", "", ChannelOverseas},
		{"BWA", "INTERCOMPA", "", ChannelInterCompany},
		{"USA", "DOMESTIC", "", ChannelDirect},
		{"USA", "OVERSEAS", "UC000001", ChannelDistributor},
		// the account override applies even when the group is blank
		{"USA", "", "UC000001", ChannelDistributor},
	}
	for _, tc := range cases {
		got := ClassifyChannel(tc.entity, tc.group, tc.account)
		require.NotNil(t, got, "%s/%s/%s", tc.entity, tc.group, tc.account)
		assert.Equal(t, tc.want, *got, "%s/%s/%s", tc.entity, tc.group, tc.account)
	}
}

func TestClassifyChannelUnknownStaysNull(t *testing.T) {
	assert.Nil(t, ClassifyChannel("HQ", "CG99", ""))
	assert.Nil(t, ClassifyChannel("VIETNAM", "CG11", ""))
	assert.Nil(t, ClassifyChannel("BWA", "SOMETHING", ""))
	assert.Nil(t, ClassifyChannel("UNKNOWN_ENTITY", "CG11", ""))
}

func TestClassifyChannelDeterministic(t *testing.T) {
	a := ClassifyChannel("hq", " CG11 ", " HC000282 ")
	b := ClassifyChannel("HQ", "CG11", "HC000282")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, *b, *a)
	assert.Equal(t, ChannelDistributor, *a)
}
