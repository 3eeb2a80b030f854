package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type JsonSchemaTestSuite struct {
	suite.Suite
}

func TestJsonSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(JsonSchemaTestSuite))
}

type testLimits struct {
	MaxDailyTrades int     `json:"maxDailyTrades" yaml:"max_daily_trades" jsonschema:"title=Max Daily Trades,minimum=1,default=10"`
	StopLossPct    float64 `json:"stopLossPct" yaml:"stop_loss_pct" jsonschema:"title=Stop Loss Percent,default=3"`
}

func (suite *JsonSchemaTestSuite) properties(raw string) map[string]any {
	var doc map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(raw), &doc))

	props, ok := doc["properties"].(map[string]any)
	suite.Require().True(ok)

	return props
}

func (suite *JsonSchemaTestSuite) TestToJSONSchema() {
	raw, err := ToJSONSchema(testLimits{})
	suite.NoError(err)

	props := suite.properties(raw)
	suite.Contains(props, "maxDailyTrades")
	suite.Contains(props, "stopLossPct")
}

func (suite *JsonSchemaTestSuite) TestToYAMLSchema() {
	raw, err := ToYAMLSchema(testLimits{})
	suite.NoError(err)

	props := suite.properties(raw)
	suite.Contains(props, "max_daily_trades")
	suite.Contains(props, "stop_loss_pct")
	suite.NotContains(props, "maxDailyTrades")
}
