package flowctx_test

import (
	"fmt"

	"github.com/flowmesh/engine/message"
)

func testMessage(i int) message.Message {
	return message.User(fmt.Sprintf("content-%d", i), "node")
}
