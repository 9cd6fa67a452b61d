package constants

const (
	APP_STOREFRONT = "storefront"
)

const (
	KEY_APP_NAME             = "app"
	KEY_AMOUNT               = "amount"
	KEY_CACHE_KEY            = "cacheKey"
	KEY_CART                 = "cart"
	KEY_CART_ID              = "cartId"
	KEY_CART_ITEM            = "cartItem"
	KEY_CART_ITEM_ID         = "cartItemId"
	KEY_CONFIG               = "config"
	KEY_EVENT_TYPE           = "eventType"
	KEY_INTENT_ID            = "intentId"
	KEY_ORDER                = "order"
	KEY_ORDER_ID             = "orderId"
	KEY_ORDER_ITEMS          = "orderItems"
	KEY_PAYMENT              = "payment"
	KEY_PAYMENT_ID           = "paymentId"
	KEY_PROCESS              = "process"
	KEY_PRODUCT              = "product"
	KEY_PRODUCT_ID           = "productId"
	KEY_QUANTITY             = "quantity"
	KEY_REQUEST_BODY         = "requestBody"
	KEY_REQUEST_HEADER       = "requestHeader"
	KEY_REQUEST_HOST         = "host"
	KEY_REQUEST_ID           = "requestId"
	KEY_REQUEST_IP           = "requesterIP"
	KEY_REQUEST_METHOD       = "requestMethod"
	KEY_REQUEST_URI          = "requestURI"
	KEY_REQUEST_URL          = "requestURL"
	KEY_TAG                  = "tag"
	KEY_TOTAL_PRICE          = "totalPrice"
	KEY_USER_ID              = "userId"
)
