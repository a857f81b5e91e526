package message

// Action identifies the operation a request asks for.
type Action string

// Actions understood by the bridge or by the privileged UI layer.
const (
	ActionGetUserAccount        Action = "GET_USER_ACCOUNT"
	ActionGetAccountData        Action = "GET_ACCOUNT_DATA"
	ActionGetAccountNames       Action = "GET_ACCOUNT_NAMES"
	ActionGetNameData           Action = "GET_NAME_DATA"
	ActionGetResourceURL        Action = "GET_QDN_RESOURCE_URL"
	ActionLinkToResource        Action = "LINK_TO_QDN_RESOURCE"
	ActionListResources         Action = "LIST_QDN_RESOURCES"
	ActionSearchResources       Action = "SEARCH_QDN_RESOURCES"
	ActionFetchResource         Action = "FETCH_QDN_RESOURCE"
	ActionGetResourceStatus     Action = "GET_QDN_RESOURCE_STATUS"
	ActionGetResourceProperties Action = "GET_QDN_RESOURCE_PROPERTIES"
	ActionPublishResource       Action = "PUBLISH_QDN_RESOURCE"
	ActionSearchChatMessages    Action = "SEARCH_CHAT_MESSAGES"
	ActionSendChatMessage       Action = "SEND_CHAT_MESSAGE"
	ActionListGroups            Action = "LIST_GROUPS"
	ActionJoinGroup             Action = "JOIN_GROUP"
	ActionGetBalance            Action = "GET_BALANCE"
	ActionGetWalletBalance      Action = "GET_WALLET_BALANCE"
	ActionSendCoin              Action = "SEND_COIN"
	ActionGetAT                 Action = "GET_AT"
	ActionGetATData             Action = "GET_AT_DATA"
	ActionListATs               Action = "LIST_ATS"
	ActionDeployAT              Action = "DEPLOY_AT"
	ActionFetchBlock            Action = "FETCH_BLOCK"
	ActionFetchBlockRange       Action = "FETCH_BLOCK_RANGE"
	ActionSearchTransactions    Action = "SEARCH_TRANSACTIONS"
	ActionGetPrice              Action = "GET_PRICE"
	ActionResourceDisplayed     Action = "QDN_RESOURCE_DISPLAYED"
)

// HandlerUI marks a request as destined for the privileged UI layer.
const HandlerUI = "UI"

// String returns the wire form of the action.
func (a Action) String() string {
	return string(a)
}
