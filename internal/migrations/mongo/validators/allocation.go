package validators

import "go.mongodb.org/mongo-driver/bson"

var AllocationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"professional_id",
			"assigned_at",
			"status",
			"active",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"professional_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"assigned_at": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"assigned",
					"confirmed",
					"completed",
					"cancelled",
					"rejected",
				},
			},

			"active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
